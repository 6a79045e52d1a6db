package importer

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

// Content is the full static content of an event. Its YAML tags match the
// files of a content directory.
type Content struct {
	Levels    []hero.Level   `yaml:"levels"`
	Heroes    []HeroSpec     `yaml:"heroes"`
	Monsters  []MonsterSpec  `yaml:"monsters"`
	Stations  []StationSpec  `yaml:"stations"`
	Questions []QuestionSpec `yaml:"questions"`
	Channels  []ChannelSpec  `yaml:"channels"`
}

// HeroSpec is one hero of heroes.yaml.
type HeroSpec struct {
	UUID          uuid.UUID `yaml:"uuid"`
	ChatID        int64     `yaml:"chat_id"`
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description"`
	Faction       string    `yaml:"faction"`
	Vulnerability string    `yaml:"vulnerability"`
	Image         string    `yaml:"image,omitempty"`
	QRImage       string    `yaml:"qr_image,omitempty"`
	Level         int       `yaml:"level,omitempty"`
	hero.Scores   `yaml:",inline"`
}

// MonsterSpec is one monster of monsters.yaml.
type MonsterSpec struct {
	UUID        uuid.UUID `yaml:"uuid"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Level       int       `yaml:"level,omitempty"`
	XP          int       `yaml:"xp"`
	hero.Scores `yaml:",inline"`
}

// StationSpec is one XP station of stations.yaml.
type StationSpec struct {
	ChatID int64  `yaml:"chat_id"`
	Name   string `yaml:"name"`
	XP     int    `yaml:"xp"`
}

// QuestionSpec is one onboarding question of questions.yaml.
type QuestionSpec struct {
	ID      int    `yaml:"id"`
	Text    string `yaml:"text"`
	Audio   string `yaml:"audio,omitempty"`
	Answers string `yaml:"answers"`
}

// ChannelSpec grants a chat access to a persona.
type ChannelSpec struct {
	ChatID  int64  `yaml:"chat_id"`
	Persona string `yaml:"persona"`
	Label   string `yaml:"label"`
	Code    string `yaml:"code"`
}

// Source loads content from a format-specific location.
//
// Precondition: dir must exist and contain the expected layout.
// Postcondition: returns non-nil Content or a non-nil error.
type Source interface {
	Load(dir string) (*Content, error)
}
