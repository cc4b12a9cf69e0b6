package blackbox

// State — состояние отправки заказа в фискальный модуль.
type State int

const (
	Idle State = iota
	Sending
	PinRequired
	Signed
	Failed
	Abandoned // пользователь отказался вводить PIN
)

var stateNames = map[State]string{
	Idle:        "idle",
	Sending:     "sending",
	PinRequired: "pin required",
	Signed:      "signed",
	Failed:      "failed",
	Abandoned:   "abandoned",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal сообщает, что отправка завершена.
func (s State) Terminal() bool {
	return s == Signed || s == Failed || s == Abandoned
}
