package models

import (
	"strings"

	"github.com/atinyakov/SyslogKeeper/internal/credential"
)

// User field names accepted by NewUser and Update.
const (
	UserFieldName           = "name"
	UserFieldEmail          = "email"
	UserFieldAccessRights   = "access_rights"
	UserFieldType           = "type"
	UserFieldPassword       = "password"
	UserFieldSecretPassword = "secret_password"
)

// DefaultUserType is assigned when no type is given.
const DefaultUserType = "admin"

// User is an interactive operator account.
//
// The password is encoded with the mode passed by the caller (irreversible in
// production). The secret password is a device-facing secondary secret and is
// always reversible. Neither credential can be assigned directly; they are
// only set through NewUser and Update.
type User struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessRights string `json:"access_rights"`

	password       string
	secretPassword string
}

// NewUser builds a user from operator-supplied fields.
func NewUser(fields map[string]string, passwordMode credential.Mode) (*User, error) {
	u := &User{Type: DefaultUserType}
	if err := u.Update(fields, passwordMode); err != nil {
		return nil, err
	}
	if u.Name == "" {
		return nil, fieldErr(UserFieldName, ErrRequired)
	}
	return u, nil
}

// RestoreUser rebuilds a user from stored, already-encoded values.
func RestoreUser(id, userType, name, email, accessRights, encodedPassword, encodedSecret string) *User {
	return &User{
		ID:             id,
		Type:           userType,
		Name:           name,
		Email:          email,
		AccessRights:   accessRights,
		password:       encodedPassword,
		secretPassword: encodedSecret,
	}
}

// Update applies changes field by field. Password fields are run through the
// credential codec before being stored. Either every change is applied or,
// on error, none is.
func (u *User) Update(changes map[string]string, passwordMode credential.Mode) error {
	next := *u
	for _, field := range sortedKeys(changes) {
		value := changes[field]
		switch field {
		case UserFieldName:
			value = strings.TrimSpace(value)
			if value == "" {
				return fieldErr(field, ErrRequired)
			}
			next.Name = value
		case UserFieldEmail:
			next.Email = strings.TrimSpace(value)
		case UserFieldAccessRights:
			next.AccessRights = strings.TrimSpace(value)
		case UserFieldType:
			next.Type = strings.TrimSpace(value)
		case UserFieldPassword:
			encoded, err := credential.Encode(value, passwordMode)
			if err != nil {
				return fieldErr(field, err)
			}
			next.password = encoded
		case UserFieldSecretPassword:
			encoded, err := credential.Encode(value, credential.Reversible)
			if err != nil {
				return fieldErr(field, err)
			}
			next.secretPassword = encoded
		default:
			return fieldErr(field, ErrUnknownField)
		}
	}
	*u = next
	return nil
}

// EncodedPassword returns the stored form of the password.
func (u *User) EncodedPassword() string { return u.password }

// EncodedSecretPassword returns the stored form of the secret password.
func (u *User) EncodedSecretPassword() string { return u.secretPassword }

// HasPassword reports whether a password has been set.
func (u *User) HasPassword() bool { return u.password != "" }

// CheckPassword verifies candidate against the stored password.
func (u *User) CheckPassword(candidate string, passwordMode credential.Mode) bool {
	return credential.Verify(candidate, u.password, passwordMode)
}

// Password recovers the password. It fails with
// credential.ErrDecodeOnIrreversibleValue when the password was hashed.
func (u *User) Password(passwordMode credential.Mode) (string, error) {
	if passwordMode != credential.Reversible {
		return "", credential.ErrDecodeOnIrreversibleValue
	}
	return credential.Decode(u.password)
}

// SecretPassword recovers the device-facing secret password.
func (u *User) SecretPassword() (string, error) {
	return credential.Decode(u.secretPassword)
}

func (u *User) String() string {
	return u.Name
}
