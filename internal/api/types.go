package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/appointment"
	"github.com/hackgods/telehealth-social/internal/availability"
	"github.com/hackgods/telehealth-social/internal/connection"
	"github.com/hackgods/telehealth-social/internal/feed"
	"github.com/hackgods/telehealth-social/internal/profile"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Connections

type FollowRequest struct {
	FollowingID string `json:"following_id" validate:"required,uuid"`
}

type ConnectionResponse struct {
	Success    bool                   `json:"success"`
	Connection *connection.Connection `json:"connection"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type FollowersResponse struct {
	Success   bool               `json:"success"`
	Followers []connection.Entry `json:"followers"`
	Total     int                `json:"total"`
	Count     int                `json:"count"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	HasNext   bool               `json:"has_next"`
}

type FollowingResponse struct {
	Success   bool               `json:"success"`
	Following []connection.Entry `json:"following"`
	Total     int                `json:"total"`
	Count     int                `json:"count"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	HasNext   bool               `json:"has_next"`
}

type IsFollowingResponse struct {
	Success     bool      `json:"success"`
	IsFollowing bool      `json:"is_following"`
	UserID      uuid.UUID `json:"user_id"`
}

type FollowerCountResponse struct {
	Success       bool      `json:"success"`
	UserID        uuid.UUID `json:"user_id"`
	FollowerCount int       `json:"follower_count"`
}

type FollowingCountResponse struct {
	Success        bool      `json:"success"`
	UserID         uuid.UUID `json:"user_id"`
	FollowingCount int       `json:"following_count"`
}

// Posts

type CreatePostRequest struct {
	Content string   `json:"content" validate:"max=5000"`
	Media   []string `json:"media" validate:"max=10,dive,max=512"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type FeedResponse struct {
	Success bool        `json:"success"`
	Posts   []feed.Post `json:"posts"`
	Total   int         `json:"total"`
	Count   int         `json:"count"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasNext bool        `json:"has_next"`
	Filter  feed.Filter `json:"filter"`
}

type PostResponse struct {
	Success bool       `json:"success"`
	Post    *feed.Post `json:"post"`
}

type LikeResponse struct {
	Success bool `json:"success"`
	Liked   bool `json:"liked"`
}

type CommentResponse struct {
	Success bool          `json:"success"`
	Comment *feed.Comment `json:"comment"`
}

type CommentsResponse struct {
	Success  bool           `json:"success"`
	Comments []feed.Comment `json:"comments"`
	Total    int            `json:"total"`
	Count    int            `json:"count"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	HasNext  bool           `json:"has_next"`
}

type MediaResponse struct {
	Success bool   `json:"success"`
	Media   string `json:"media"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Schedule

type SlotResponse struct {
	Horario    time.Time `json:"horario"`
	Hora       string    `json:"hora"`
	Disponivel bool      `json:"disponivel"`
}

type SlotConfigResponse struct {
	DuracaoMinutos   int    `json:"duracao_minutos"`
	IntervaloMinutos int    `json:"intervalo_minutos"`
	FusoHorario      string `json:"fuso_horario"`
}

type SlotsResponse struct {
	Data         string             `json:"data"`
	Slots        []SlotResponse     `json:"slots"`
	Total        int                `json:"total"`
	Configuracao SlotConfigResponse `json:"configuracao"`
}

type CreateRuleRequest struct {
	DiaSemana  *int   `json:"dia_semana" validate:"omitempty,min=0,max=6"`
	Data       string `json:"data" validate:"omitempty,datetime=2006-01-02"`
	HoraInicio string `json:"hora_inicio" validate:"required,datetime=15:04"`
	HoraFim    string `json:"hora_fim" validate:"required,datetime=15:04"`
}

type RuleResponse struct {
	Success         bool               `json:"success"`
	Disponibilidade *availability.Rule `json:"disponibilidade"`
}

type RulesResponse struct {
	Success         bool                `json:"success"`
	Disponibilidade []availability.Rule `json:"disponibilidade"`
}

type CreateBlackoutRequest struct {
	Inicio time.Time `json:"inicio" validate:"required"`
	Fim    time.Time `json:"fim" validate:"required"`
	Motivo *string   `json:"motivo" validate:"omitempty,max=500"`
}

type BlackoutResponse struct {
	Success  bool                   `json:"success"`
	Bloqueio *availability.Blackout `json:"bloqueio"`
}

type BlackoutsResponse struct {
	Success   bool                    `json:"success"`
	Bloqueios []availability.Blackout `json:"bloqueios"`
}

// Appointments

type BookRequest struct {
	ProfissionalID string    `json:"profissional_id" validate:"required,uuid"`
	Horario        time.Time `json:"horario" validate:"required"`
	Observacoes    *string   `json:"observacoes" validate:"omitempty,max=1000"`
}

type AppointmentResponse struct {
	Success  bool                     `json:"success"`
	Consulta *appointment.Appointment `json:"consulta"`
}

type AppointmentDetailResponse struct {
	Success  bool                           `json:"success"`
	Consulta *appointment.AppointmentDetail `json:"consulta"`
}

type AppointmentsResponse struct {
	Success   bool                            `json:"success"`
	Consultas []appointment.AppointmentDetail `json:"consultas"`
	Total     int                             `json:"total"`
	Count     int                             `json:"count"`
	Limit     int                             `json:"limit"`
	Offset    int                             `json:"offset"`
	HasNext   bool                            `json:"has_next"`
}

// Profiles

type RegisterProfileRequest struct {
	Kind      string  `json:"kind" validate:"required,oneof=professional patient clinic company"`
	Name      string  `json:"name" validate:"required,max=200"`
	CPF       string  `json:"cpf" validate:"max=20"`
	Specialty *string `json:"specialty" validate:"omitempty,max=200"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type ProfileResponse struct {
	Success bool              `json:"success"`
	Profile *profile.Identity `json:"profile"`
}
