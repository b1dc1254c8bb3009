package profile

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of profile tables an identity can live in.
type Kind string

const (
	KindProfessional Kind = "professional"
	KindPatient      Kind = "patient"
	KindClinic       Kind = "clinic"
	KindCompany      Kind = "company"
)

var kinds = []Kind{KindProfessional, KindPatient, KindClinic, KindCompany}

func ParseKind(s string) (Kind, bool) {
	for _, k := range kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HasCPF reports whether profiles of this kind carry a national ID.
func (k Kind) HasCPF() bool {
	return k == KindProfessional || k == KindPatient
}

func (k Kind) table() string {
	switch k {
	case KindProfessional:
		return "professionals"
	case KindPatient:
		return "patients"
	case KindClinic:
		return "clinics"
	case KindCompany:
		return "companies"
	}
	return ""
}

// Identity is a user id resolved to exactly one profile kind.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Specialty *string   `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterInput struct {
	Kind      Kind
	Name      string
	CPF       string
	Specialty *string
	AvatarURL *string
}
