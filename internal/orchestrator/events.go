package orchestrator

type EventType string

const (
	EventOpening  EventType = "opening"
	EventPhase    EventType = "phase"
	EventProgress EventType = "progress"
	EventTie      EventType = "tie"
	EventNotice   EventType = "notice"
	EventGameOver EventType = "game_over"
)

// Notice levels
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event is what presentation collaborators receive. Progress events carry the
// step result; game_over carries the winner (empty when nobody won).
type Event struct {
	Type        EventType   `json:"type"`
	Round       int         `json:"round"`
	Phase       string      `json:"phase,omitempty"`
	Participant string      `json:"participant,omitempty"`
	Result      *StepResult `json:"result,omitempty"`
	WinnerID    string      `json:"winner_id,omitempty"`
	Tied        bool        `json:"tied,omitempty"`
	Level       string      `json:"level,omitempty"`
	Message     string      `json:"message,omitempty"`
}

type Observer interface {
	Publish(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Publish(e Event) { f(e) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (o Observers) Publish(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Publish(e)
		}
	}
}
