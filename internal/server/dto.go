package server

import (
	"encoding/json"

	"techco/internal/domain"
	"techco/internal/engine"
)

// Request payloads

type CreateGameRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

type HireDeveloperRequest struct {
	Name          string  `json:"name"`
	Seniority     int     `json:"seniority" minimum:"1" maximum:"5"`
	MonthlySalary float64 `json:"monthly_salary,omitempty"`
}

type HireSalesPersonRequest struct {
	Name          string  `json:"name"`
	Experience    int     `json:"experience" minimum:"1" maximum:"5"`
	MonthlySalary float64 `json:"monthly_salary,omitempty"`
}

type CreateProjectRequest struct {
	Name       string  `json:"name"`
	Complexity int     `json:"complexity" minimum:"1" maximum:"5"`
	Value      float64 `json:"value,omitempty"`
}

type AssignProjectRequest struct {
	DeveloperID string `json:"developer_id"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type StartGenerationRequest struct {
	SalesPersonID    string `json:"sales_person_id"`
	TargetName       string `json:"target_name,omitempty"`
	TargetComplexity int    `json:"target_complexity,omitempty" minimum:"0" maximum:"5"`
}

type OfflineCatchUpRequest struct {
	OfflineSeconds int64 `json:"offline_seconds" minimum:"0"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Response payloads

type GameResponse struct {
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

type DeveloperResponse struct {
	ID                  string  `json:"id"`
	GameID              string  `json:"game_id"`
	Name                string  `json:"name"`
	Seniority           int     `json:"seniority"`
	SeniorityLabel      string  `json:"seniority_label"`
	SeniorityColor      string  `json:"seniority_color"`
	MonthlySalary       float64 `json:"monthly_salary"`
	IsBusy              bool    `json:"is_busy"`
	ProjectsCompleted   int     `json:"projects_completed"`
	TotalValueDelivered float64 `json:"total_value_delivered"`
	HireDate            string  `json:"hire_date" format:"date-time"`
}

type SalesPersonResponse struct {
	ID                  string  `json:"id"`
	GameID              string  `json:"game_id"`
	Name                string  `json:"name"`
	Experience          int     `json:"experience"`
	ExperienceLabel     string  `json:"experience_label"`
	ExperienceColor     string  `json:"experience_color"`
	MonthlySalary       float64 `json:"monthly_salary"`
	IsBusy              bool    `json:"is_busy"`
	ProjectsGenerated   int     `json:"projects_generated"`
	TotalValueGenerated float64 `json:"total_value_generated"`
	HireDate            string  `json:"hire_date" format:"date-time"`
}

type ProjectResponse struct {
	ID                    string  `json:"id"`
	GameID                string  `json:"game_id"`
	Name                  string  `json:"name"`
	Complexity            int     `json:"complexity"`
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
	CancelReason          string  `json:"cancel_reason,omitempty"`
	CreatedAt             string  `json:"created_at" format:"date-time"`

	Progress         float64 `json:"progress"`
	SecondsRemaining int64   `json:"seconds_remaining"`
	Ready            bool    `json:"ready"`
}

type GenerationResponse struct {
	ID                    string  `json:"id"`
	GameID                string  `json:"game_id"`
	SalesPersonID         string  `json:"sales_person_id"`
	Status                string  `json:"status" enum:"in_progress,completed,cancelled"`
	TargetComplexity      int     `json:"target_complexity"`
	TargetValue           float64 `json:"target_value"`
	TargetName            string  `json:"target_name"`
	StartedAt             string  `json:"started_at" format:"date-time"`
	EstimatedCompletionAt string  `json:"estimated_completion_at" format:"date-time"`
	CompletedAt           *string `json:"completed_at,omitempty" format:"date-time"`
	GeneratedProjectID    *string `json:"generated_project_id,omitempty"`
	MarketConditions      float64 `json:"market_conditions"`
	CancelReason          string  `json:"cancel_reason,omitempty"`

	Progress         float64 `json:"progress"`
	SecondsRemaining int64   `json:"seconds_remaining"`
	Ready            bool    `json:"ready"`
}

type GameStatusResponse struct {
	Game            GameResponse   `json:"game"`
	Developers      int            `json:"developers"`
	SalesPeople     int            `json:"sales_people"`
	Projects        map[string]int `json:"projects"`
	MonthlyCosts    float64        `json:"monthly_costs"`
	OpenGenerations int            `json:"open_generations"`
}

type CheckGameOverResponse struct {
	Game    GameResponse `json:"game"`
	Changed bool         `json:"changed"`
}

type OfflineCatchUpResponse struct {
	DeadlinesShifted int `json:"deadlines_shifted"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	GameID     string         `json:"game_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type paginatedProjects struct {
	Items      []ProjectResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Conversion helpers

func gameResponse(g domain.Game) GameResponse {
	return GameResponse(g)
}

var seniorityLabels = map[int]string{1: "Junior", 2: "Mid-Level", 3: "Senior", 4: "Lead", 5: "Principal"}
var levelColors = map[int]string{1: "gray", 2: "blue", 3: "green", 4: "purple", 5: "gold"}
var experienceLabels = map[int]string{1: "Trainee", 2: "Associate", 3: "Seasoned", 4: "Senior", 5: "Rainmaker"}

func developerResponse(d domain.Developer) DeveloperResponse {
	return DeveloperResponse{
		ID:                  d.ID,
		GameID:              d.GameID,
		Name:                d.Name,
		Seniority:           d.Seniority,
		SeniorityLabel:      seniorityLabels[d.Seniority],
		SeniorityColor:      levelColors[d.Seniority],
		MonthlySalary:       d.MonthlySalary,
		IsBusy:              d.IsBusy,
		ProjectsCompleted:   d.ProjectsCompleted,
		TotalValueDelivered: d.TotalValueDelivered,
		HireDate:            d.HireDate,
	}
}

func salesPersonResponse(s domain.SalesPerson) SalesPersonResponse {
	return SalesPersonResponse{
		ID:                  s.ID,
		GameID:              s.GameID,
		Name:                s.Name,
		Experience:          s.Experience,
		ExperienceLabel:     experienceLabels[s.Experience],
		ExperienceColor:     levelColors[s.Experience],
		MonthlySalary:       s.MonthlySalary,
		IsBusy:              s.IsBusy,
		ProjectsGenerated:   s.ProjectsGenerated,
		TotalValueGenerated: s.TotalValueGenerated,
		HireDate:            s.HireDate,
	}
}

func projectResponse(p domain.Project, ev engine.CompletionEvaluation) ProjectResponse {
	return ProjectResponse{
		ID:                    p.ID,
		GameID:                p.GameID,
		Name:                  p.Name,
		Complexity:            p.Complexity,
		Value:                 p.Value,
		Status:                p.Status,
		DeveloperID:           p.DeveloperID,
		GeneratedBy:           p.GeneratedBy,
		AssignedAt:            p.AssignedAt,
		StartedAt:             p.StartedAt,
		EstimatedCompletionAt: p.EstimatedCompletionAt,
		CompletedAt:           p.CompletedAt,
		EstimatedMinutes:      p.EstimatedMinutes,
		ActualMinutes:         p.ActualMinutes,
		CancelReason:          p.CancelReason,
		CreatedAt:             p.CreatedAt,
		Progress:              ev.Progress,
		SecondsRemaining:      ev.SecondsRemaining,
		Ready:                 ev.Ready,
	}
}

func generationResponse(g domain.ProjectGeneration, ev engine.CompletionEvaluation) GenerationResponse {
	return GenerationResponse{
		ID:                    g.ID,
		GameID:                g.GameID,
		SalesPersonID:         g.SalesPersonID,
		Status:                g.Status,
		TargetComplexity:      g.TargetComplexity,
		TargetValue:           g.TargetValue,
		TargetName:            g.TargetName,
		StartedAt:             g.StartedAt,
		EstimatedCompletionAt: g.EstimatedCompletionAt,
		CompletedAt:           g.CompletedAt,
		GeneratedProjectID:    g.GeneratedProjectID,
		MarketConditions:      g.MarketConditions,
		CancelReason:          g.CancelReason,
		Progress:              ev.Progress,
		SecondsRemaining:      ev.SecondsRemaining,
		Ready:                 ev.Ready,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		GameID:     e.GameID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func mapGames(items []domain.Game) []GameResponse {
	res := make([]GameResponse, 0, len(items))
	for _, g := range items {
		res = append(res, gameResponse(g))
	}
	return res
}

func mapDevelopers(items []domain.Developer) []DeveloperResponse {
	res := make([]DeveloperResponse, 0, len(items))
	for _, d := range items {
		res = append(res, developerResponse(d))
	}
	return res
}

func mapSalesPeople(items []domain.SalesPerson) []SalesPersonResponse {
	res := make([]SalesPersonResponse, 0, len(items))
	for _, s := range items {
		res = append(res, salesPersonResponse(s))
	}
	return res
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}
