package order

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the fulfilment stage of an order. It only moves forward.
type Status int

const (
	Pending Status = iota
	InProcess
	Completed
)

var statusWire = [...]string{"PENDIENTE", "EN_PROCESO", "COMPLETADO"}
var statusLabel = [...]string{"Pendiente", "En proceso", "Completado"}

func (s Status) valid() bool {
	return s >= Pending && s <= Completed
}

// Wire is the backend enum value.
func (s Status) Wire() string {
	if !s.valid() {
		return ""
	}
	return statusWire[s]
}

// String returns the display label.
func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusLabel[s]
}

// Next returns the following stage. Completed has none.
func (s Status) Next() (Status, bool) {
	if !s.valid() || s == Completed {
		return s, false
	}
	return s + 1, true
}

// ParseStatus accepts the backend value or the display label, in any case.
func ParseStatus(raw string) (Status, bool) {
	v := strings.TrimSpace(raw)
	for i := range statusWire {
		if strings.EqualFold(v, statusWire[i]) || strings.EqualFold(v, statusLabel[i]) {
			return Status(i), true
		}
	}
	return Pending, false
}

// MarshalJSON emits the backend value.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseStatus(raw)
	if !ok {
		return fmt.Errorf("unknown order status %q", raw)
	}
	*s = parsed
	return nil
}

// Action is something the operator may do with an order row.
type Action struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Actions lists what an active order in status s allows: moving to the next
// stage while there is one, deactivation once completed.
func (s Status) Actions() []Action {
	if next, ok := s.Next(); ok {
		return []Action{{Name: "advance", Label: next.String()}}
	}
	return []Action{{Name: "deactivate", Label: "Eliminar"}}
}
