package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserMarshalOmitsPassword(t *testing.T) {
	user := User{
		ID:       7,
		Username: "ada",
		Email:    "ada@example.com",
		Password: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}

	out, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	body := string(out)
	if strings.Contains(body, "password") {
		t.Errorf("marshaled user exposes a password field: %s", body)
	}
	if strings.Contains(body, "argon2id") {
		t.Errorf("marshaled user exposes the password hash: %s", body)
	}
	if !strings.Contains(body, `"username":"ada"`) {
		t.Errorf("marshaled user missing username: %s", body)
	}
}
