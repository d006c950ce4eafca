package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/apierr"
	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

type PlanRequest struct {
	Subject    string     `json:"subject"`
	Minutes    int        `json:"minutes"`
	Mood       types.Mood `json:"mood"`
	FocusTopic string     `json:"focus_topic"`
	Confidence int        `json:"confidence"`
}

type PlanResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PlanService turns a free block plus the user's current state into a
// study plan, and extracts timetables from uploaded images.
type PlanService interface {
	GeneratePlan(ctx context.Context, req PlanRequest) PlanResult
	ExtractTimetable(ctx context.Context, imageData []byte, mimeType string) ([]types.ScheduleRow, error)
}

type planService struct {
	log     *logger.Logger
	client  GeminiClient
	timeout time.Duration
}

func NewPlanService(baseLog *logger.Logger, client GeminiClient, timeout time.Duration) PlanService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &planService{
		log:     baseLog.With("service", "PlanService"),
		client:  client,
		timeout: timeout,
	}
}

func (ps *planService) GeneratePlan(ctx context.Context, req PlanRequest) PlanResult {
	if err := validatePlanRequest(req); err != nil {
		return PlanResult{Success: false, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	prompt := buildPlanPrompt(req)
	text, err := ps.client.GenerateText(ctx, prompt)
	if err != nil {
		ps.log.Error("Plan generation failed", "subject", req.Subject, "error", err)
		return PlanResult{Success: false, Message: planFailureMessage(err)}
	}
	ps.log.Info("Plan generated", "subject", req.Subject, "minutes", req.Minutes, "mood", req.Mood)
	return PlanResult{Success: true, Message: text}
}

func validatePlanRequest(req PlanRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("Subject is required to generate a plan.")
	}
	if req.Minutes < types.MinDuration || req.Minutes > types.MaxDuration {
		return fmt.Errorf("Study time must be between %d and %d minutes.", types.MinDuration, types.MaxDuration)
	}
	if _, err := types.ParseMood(string(req.Mood)); err != nil {
		return fmt.Errorf("Unknown energy level %q.", req.Mood)
	}
	if req.Confidence < 0 || req.Confidence > 10 {
		return fmt.Errorf("Confidence must be between 0 and 10.")
	}
	return nil
}

func buildPlanPrompt(req PlanRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a productivity coach. Create a focused study plan for the subject %q.\n", req.Subject)
	fmt.Fprintf(&sb, "The student has exactly %d minutes of unexpected free time because a class was cancelled.\n", req.Minutes)
	fmt.Fprintf(&sb, "Their current energy level: %s (%s).\n", req.Mood.Label(), req.Mood.EnergyDescription())

	if req.FocusTopic != "" {
		fmt.Fprintf(&sb, "They specifically want to focus on: %s.\n", req.FocusTopic)
	}
	if req.Confidence > 0 {
		fmt.Fprintf(&sb, "Their self-rated confidence in this subject is %d out of 10", req.Confidence)
		switch {
		case req.Confidence <= 3:
			sb.WriteString(", so start from fundamentals and keep the steps small.\n")
		case req.Confidence <= 6:
			sb.WriteString(", so mix review of basics with some practice problems.\n")
		default:
			sb.WriteString(", so skip the basics and push into harder practice and edge cases.\n")
		}
	}

	sb.WriteString("\nRules:\n")
	fmt.Fprintf(&sb, "- The plan must fill exactly %d minutes, no more and no less. Every block gets an explicit minute count and the counts must sum to %d.\n", req.Minutes, req.Minutes)
	switch req.Mood {
	case types.MoodLowBattery, types.MoodPowerSaving:
		sb.WriteString("- Favor passive, low-effort activities: watching explainers, light reading, reviewing notes or flashcards.\n")
	case types.MoodNeuralSync, types.MoodBeastMode:
		sb.WriteString("- Favor active, demanding work: solving problems, writing code, practice tests, teaching the material back.\n")
	default:
		sb.WriteString("- Balance active practice with lighter review so the session stays sustainable.\n")
	}
	if req.Minutes > 60 {
		sb.WriteString("- Include one 5 minute break roughly halfway through.\n")
	}
	sb.WriteString("- Format the answer in markdown: a one-line headline, then a numbered list of time blocks, then a single motivating closing line.\n")
	sb.WriteString("- Do not add any preamble before the headline.\n")
	return sb.String()
}

func planFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "AI planning is not configured. Add a Gemini API key to enable it."
	case errors.Is(err, ErrQuotaExhausted):
		return "All configured AI credentials are out of quota. Try again later."
	default:
		return "The AI service could not generate a plan right now. Try again in a moment."
	}
}

const timetablePrompt = `Look at this image of a class timetable and extract every class into JSON.
Return ONLY a JSON array, no prose and no markdown, where each element has exactly these keys:
  "Day": the weekday name, e.g. "Monday"
  "Time": the start time as written, e.g. "10:00 AM"
  "Subject": the class name
  "Duration": the length in minutes as a number
If a duration is not visible, use 60. Do not invent classes that are not in the image.`

// timetableRow mirrors the schema the model is instructed to emit.
// DisallowUnknownFields makes any extra key a hard failure, so a
// malformed extraction never reaches the master schedule.
type timetableRow struct {
	Day      string `json:"Day"`
	Time     string `json:"Time"`
	Subject  string `json:"Subject"`
	Duration int    `json:"Duration"`
}

func (ps *planService) ExtractTimetable(ctx context.Context, imageData []byte, mimeType string) ([]types.ScheduleRow, error) {
	if len(imageData) == 0 {
		return nil, apierr.Newf(http.StatusBadRequest, "invalid_image", "image is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	raw, err := ps.client.GenerateVision(ctx, timetablePrompt, imageData, mimeType)
	if err != nil {
		ps.log.Error("Timetable extraction failed", "error", err)
		switch {
		case errors.Is(err, ErrNoCredentials):
			return nil, apierr.New(http.StatusServiceUnavailable, "ai_not_configured", err)
		case errors.Is(err, ErrQuotaExhausted):
			return nil, apierr.New(http.StatusServiceUnavailable, "ai_quota_exhausted", err)
		default:
			return nil, apierr.New(http.StatusBadGateway, "ai_failed", err)
		}
	}

	rows, err := parseTimetable(raw)
	if err != nil {
		ps.log.Warn("Timetable response rejected", "error", err)
		return nil, apierr.New(http.StatusUnprocessableEntity, "invalid_timetable", err)
	}
	ps.log.Info("Timetable extracted", "rows", len(rows))
	return rows, nil
}

func parseTimetable(raw string) ([]types.ScheduleRow, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.DisallowUnknownFields()
	var parsed []timetableRow
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("timetable does not match expected schema: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("timetable has no rows")
	}

	rows := make([]types.ScheduleRow, 0, len(parsed))
	for i, r := range parsed {
		if strings.TrimSpace(r.Day) == "" || strings.TrimSpace(r.Time) == "" || strings.TrimSpace(r.Subject) == "" {
			return nil, fmt.Errorf("timetable row %d is missing day, time or subject", i)
		}
		dur := r.Duration
		if dur < types.MinDuration {
			dur = types.DefaultDuration
		}
		if dur > types.MaxDuration {
			dur = types.MaxDuration
		}
		rows = append(rows, types.ScheduleRow{
			Day:      strings.TrimSpace(r.Day),
			Time:     strings.TrimSpace(r.Time),
			Subject:  strings.TrimSpace(r.Subject),
			Duration: dur,
			Status:   types.StatusActive,
		})
	}
	return rows, nil
}
