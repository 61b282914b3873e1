package models

// Usage — накопительный учёт токенов и стоимости обращений к OpenAI.
// TotalTokens всегда равен InputTokens + OutputTokens.
type Usage struct {
	InputTokens  int64   `yaml:"input_tokens" json:"input_tokens"`
	OutputTokens int64   `yaml:"output_tokens" json:"output_tokens"`
	TotalTokens  int64   `yaml:"total_tokens" json:"total_tokens"`
	Cost         float64 `yaml:"cost" json:"cost"`
}

// UsageDelta — расход одного вызова OpenAI.
type UsageDelta struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// NewUsageDelta считает стоимость вызова по общему числу токенов.
// Отрицательные значения приводятся к нулю.
func NewUsageDelta(input, output int64, costPerToken float64) UsageDelta {
	if input < 0 {
		input = 0
	}
	if output < 0 {
		output = 0
	}
	if costPerToken < 0 {
		costPerToken = 0
	}
	return UsageDelta{
		InputTokens:  input,
		OutputTokens: output,
		Cost:         float64(input+output) * costPerToken,
	}
}

// Total возвращает суммарное количество токенов вызова.
func (d UsageDelta) Total() int64 {
	return d.InputTokens + d.OutputTokens
}

// Plus складывает расход двух вызовов.
func (d UsageDelta) Plus(o UsageDelta) UsageDelta {
	return UsageDelta{
		InputTokens:  d.InputTokens + o.InputTokens,
		OutputTokens: d.OutputTokens + o.OutputTokens,
		Cost:         d.Cost + o.Cost,
	}
}

// IsZero сообщает, что вызов ничего не израсходовал.
func (d UsageDelta) IsZero() bool {
	return d.InputTokens == 0 && d.OutputTokens == 0 && d.Cost == 0
}

// Add добавляет расход вызова в учёт.
func (u *Usage) Add(d UsageDelta) {
	u.InputTokens += d.InputTokens
	u.OutputTokens += d.OutputTokens
	u.TotalTokens = u.InputTokens + u.OutputTokens
	u.Cost += d.Cost
}
