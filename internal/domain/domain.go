package domain

type Game struct {
	ID                     string  `json:"id"`
	OwnerID                string  `json:"owner_id"`
	Name                   string  `json:"name,omitempty"`
	Money                  float64 `json:"money"`
	Status                 string  `json:"status" enum:"active,paused,game_over"`
	PausedAt               *string `json:"paused_at,omitempty" format:"date-time"`
	ResumedAt              *string `json:"resumed_at,omitempty" format:"date-time"`
	OfflineDurationSeconds int64   `json:"offline_duration_seconds"`
	Notes                  string  `json:"notes,omitempty"`
	CreatedAt              string  `json:"created_at" format:"date-time"`
}

type Developer struct {
	ID                  string  `json:"id"`
	GameID              string  `json:"game_id"`
	Name                string  `json:"name"`
	Seniority           int     `json:"seniority" minimum:"1" maximum:"5"`
	MonthlySalary       float64 `json:"monthly_salary"`
	IsBusy              bool    `json:"is_busy"`
	ProjectsCompleted   int     `json:"projects_completed"`
	TotalValueDelivered float64 `json:"total_value_delivered"`
	HireDate            string  `json:"hire_date" format:"date-time"`
}

type SalesPerson struct {
	ID                  string  `json:"id"`
	GameID              string  `json:"game_id"`
	Name                string  `json:"name"`
	Experience          int     `json:"experience" minimum:"1" maximum:"5"`
	MonthlySalary       float64 `json:"monthly_salary"`
	IsBusy              bool    `json:"is_busy"`
	ProjectsGenerated   int     `json:"projects_generated"`
	TotalValueGenerated float64 `json:"total_value_generated"`
	HireDate            string  `json:"hire_date" format:"date-time"`
}

type Project struct {
	ID                    string  `json:"id"`
	GameID                string  `json:"game_id"`
	Name                  string  `json:"name"`
	Complexity            int     `json:"complexity" minimum:"1" maximum:"5"`
	Value                 float64 `json:"value"`
	Status                string  `json:"status" enum:"pending,in_progress,completed,cancelled"`
	DeveloperID           *string `json:"developer_id,omitempty"`
	GeneratedBy           *string `json:"generated_by,omitempty"`
	AssignedAt            *string `json:"assigned_at,omitempty" format:"date-time"`
	StartedAt             *string `json:"started_at,omitempty" format:"date-time"`
	EstimatedCompletionAt *string `json:"estimated_completion_at,omitempty" format:"date-time"`
	CompletedAt           *string `json:"completed_at,omitempty" format:"date-time"`
	EstimatedMinutes      *int    `json:"estimated_minutes,omitempty"`
	ActualMinutes         *int    `json:"actual_minutes,omitempty"`
	DifficultyMultiplier  float64 `json:"difficulty_multiplier"`
	RushBonus             float64 `json:"rush_bonus"`
	CancelReason          string  `json:"cancel_reason,omitempty"`
	CreatedAt             string  `json:"created_at" format:"date-time"`
}

type ProjectGeneration struct {
	ID                    string  `json:"id"`
	GameID                string  `json:"game_id"`
	SalesPersonID         string  `json:"sales_person_id"`
	Status                string  `json:"status" enum:"in_progress,completed,cancelled"`
	TargetComplexity      int     `json:"target_complexity" minimum:"1" maximum:"5"`
	TargetValue           float64 `json:"target_value"`
	TargetName            string  `json:"target_name"`
	StartedAt             string  `json:"started_at" format:"date-time"`
	EstimatedCompletionAt string  `json:"estimated_completion_at" format:"date-time"`
	CompletedAt           *string `json:"completed_at,omitempty" format:"date-time"`
	GeneratedProjectID    *string `json:"generated_project_id,omitempty"`
	ExperienceMultiplier  float64 `json:"experience_multiplier"`
	MarketConditions      float64 `json:"market_conditions"`
	CancelReason          string  `json:"cancel_reason,omitempty"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	GameID     string `json:"game_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Game statuses.
const (
	GameActive = "active"
	GamePaused = "paused"
	GameOver   = "game_over"
)

// Project statuses.
const (
	ProjectPending    = "pending"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
	ProjectCancelled  = "cancelled"
)

// ProjectGeneration statuses.
const (
	GenerationInProgress = "in_progress"
	GenerationCompleted  = "completed"
	GenerationCancelled  = "cancelled"
)
