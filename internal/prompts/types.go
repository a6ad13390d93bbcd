package prompts

// Breakdown is the structured result of the task breakdown prompt.
type Breakdown struct {
	Summary  string    `json:"summary"  validate:"required"`
	Subtasks []Subtask `json:"subtasks" validate:"required,min=1,max=20,dive"`
}

// Subtask is one deliverable unit of a Breakdown.
type Subtask struct {
	Title         string  `json:"title"          validate:"required,max=120"`
	Description   string  `json:"description"`
	EstimateHours float64 `json:"estimate_hours" validate:"gt=0,lte=200"`
	Priority      string  `json:"priority"       validate:"required,oneof=low medium high"`
}

// TotalHours sums the subtask estimates.
func (b Breakdown) TotalHours() float64 {
	total := 0.0
	for _, subtask := range b.Subtasks {
		total += subtask.EstimateHours
	}
	return total
}

// RiskAssessment is the structured result of the risk scoring prompt.
type RiskAssessment struct {
	Score           int          `json:"score"           validate:"gte=0,lte=100"`
	Level           string       `json:"level"           validate:"required,oneof=low medium high critical"`
	Factors         []RiskFactor `json:"factors"         validate:"dive"`
	Recommendations []string     `json:"recommendations" validate:"dive,required"`
}

// RiskFactor is one driver of a RiskAssessment score.
type RiskFactor struct {
	Name     string `json:"name"     validate:"required"`
	Severity string `json:"severity" validate:"required,oneof=low medium high"`
	Detail   string `json:"detail"`
}
