package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// LoginResponse represents the response from login
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=admin agent"`
}

// whereBuilder accumulates AND conditions with positional arguments
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(condition string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(condition, len(w.args)))
}

func (w *whereBuilder) addRaw(condition string) {
	w.conditions = append(w.conditions, condition)
}

// timeRange adds the half-open bounds of r on column
func (w *whereBuilder) timeRange(column string, r TimeRange) {
	if !r.From.IsZero() {
		w.add(column+" >= $%d", r.From)
	}
	if !r.To.IsZero() {
		w.add(column+" < $%d", r.To)
	}
}

func (w *whereBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(w.args))
}

func (w *whereBuilder) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

func nullString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

func nullTime(t sql.NullTime) *time.Time {
	if t.Valid {
		v := t.Time
		return &v
	}
	return nil
}

func nullFloat(f sql.NullFloat64) *float64 {
	if f.Valid {
		v := f.Float64
		return &v
	}
	return nil
}

func nullInt(i sql.NullInt64) *int {
	if i.Valid {
		v := int(i.Int64)
		return &v
	}
	return nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
