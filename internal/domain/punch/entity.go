package punch

import "time"

type Type string

const (
	TypeEntrada Type = "entrada" // clock in
	TypeSaida   Type = "saida"   // clock out
	TypePausa   Type = "pausa"   // break start
	TypeRetorno Type = "retorno" // break end
)

var TypeValues = []string{
	string(TypeEntrada),
	string(TypeSaida),
	string(TypePausa),
	string(TypeRetorno),
}

// Punch is a single clock event. Confirmed punches are immutable.
type Punch struct {
	ID         string
	UserID     string
	Timestamp  time.Time
	Type       Type
	WorkSiteID string
	Confirmed  bool
	CreatedAt  time.Time
}
