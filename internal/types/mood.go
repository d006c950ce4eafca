package types

import "fmt"

// Mood is the self-reported energy level that steers plan difficulty.
type Mood string

const (
	MoodLowBattery  Mood = "low_battery"
	MoodPowerSaving Mood = "power_saving"
	MoodNormal      Mood = "normal"
	MoodNeuralSync  Mood = "neural_sync"
	MoodBeastMode   Mood = "beast_mode"
)

// Moods lists the five levels from lowest to highest energy.
func Moods() []Mood {
	return []Mood{MoodLowBattery, MoodPowerSaving, MoodNormal, MoodNeuralSync, MoodBeastMode}
}

func ParseMood(s string) (Mood, error) {
	m := Mood(s)
	switch m {
	case MoodLowBattery, MoodPowerSaving, MoodNormal, MoodNeuralSync, MoodBeastMode:
		return m, nil
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// Label is the display name shown in the UI's energy selector.
func (m Mood) Label() string {
	switch m {
	case MoodLowBattery:
		return "Low Battery"
	case MoodPowerSaving:
		return "Power Saving"
	case MoodNormal:
		return "Normal Mode"
	case MoodNeuralSync:
		return "Neural Sync"
	case MoodBeastMode:
		return "Beast Mode"
	}
	return string(m)
}

// EnergyDescription is the phrasing handed to the plan prompt.
func (m Mood) EnergyDescription() string {
	switch m {
	case MoodLowBattery:
		return "extremely low energy, can barely focus"
	case MoodPowerSaving:
		return "low energy, needs easy material"
	case MoodNormal:
		return "moderate energy, can handle normal difficulty"
	case MoodNeuralSync:
		return "high energy, ready for challenging work"
	case MoodBeastMode:
		return "peak performance, tackle hardest material"
	}
	return "moderate energy"
}
