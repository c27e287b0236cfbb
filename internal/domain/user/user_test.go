package user

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid", req: CreateRequest{Email: "ada@example.com", FirstName: "Ada", LastName: "Obi"}},
		{name: "missing email", req: CreateRequest{FirstName: "Ada", LastName: "Obi"}, wantErr: "email is required"},
		{name: "invalid email", req: CreateRequest{Email: "bad", FirstName: "Ada", LastName: "Obi"}, wantErr: "invalid email format"},
		{name: "missing first name", req: CreateRequest{Email: "ada@example.com", LastName: "Obi"}, wantErr: "first_name is required"},
		{name: "missing last name", req: CreateRequest{Email: "ada@example.com", FirstName: "Ada"}, wantErr: "last_name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestCreateRequest_Normalize(t *testing.T) {
	req := CreateRequest{Email: "  Ada@Example.COM ", FirstName: " Ada ", LastName: "Obi  "}
	req.Normalize()

	if req.Email != "ada@example.com" {
		t.Errorf("email = %q, want ada@example.com", req.Email)
	}
	if req.FirstName != "Ada" || req.LastName != "Obi" {
		t.Errorf("names not trimmed: %q %q", req.FirstName, req.LastName)
	}
}

func TestFullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: ""}
	if got := u.FullName(); got != "Ada" {
		t.Errorf("FullName() = %q, want Ada", got)
	}
	u.LastName = "Obi"
	if got := u.FullName(); got != "Ada Obi" {
		t.Errorf("FullName() = %q, want %q", got, "Ada Obi")
	}
}
