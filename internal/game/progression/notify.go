package progression

import (
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Notifier queues a message for a chat.
type Notifier interface {
	Notify(chatID int64, msg transport.Message)
}

// Notify queues the notices of g: the xp gained to the hero, then for each
// level crossed a line to the master chat, the level-up message with its
// ability button and any staff or colors unlock.
//
// Precondition: h is the hero as saved by the gain.
func Notify(n Notifier, cat *messages.Catalog, masterChat int64, h *hero.Hero, g Gain) error {
	msg, err := cat.Message("hero", "gained_xp", map[string]any{"hero": h, "xp": g.Amount, "next_level": g.NextLevel})
	if err != nil {
		return err
	}
	msg.RemoveKeyboard = false
	n.Notify(h.ChatID, msg)

	for _, level := range g.LevelsCrossed {
		data := map[string]any{"hero": h, "level": level, "next_level": g.NextLevel}
		line, err := cat.Text("hero", "master_level_up", data)
		if err != nil {
			return err
		}
		n.Notify(masterChat, transport.Message{Text: line})

		up, err := cat.Message("hero", "level_up", data)
		if err != nil {
			return err
		}
		n.Notify(h.ChatID, up)

		if level%StaffUnlockEvery == 0 {
			if err := notifyText(n, cat, h.ChatID, "time_to_visit_staff", data); err != nil {
				return err
			}
		}
		if level%ColorsUnlockEvery == 0 {
			if err := notifyText(n, cat, h.ChatID, "time_to_visit_colors", data); err != nil {
				return err
			}
		}
	}
	return nil
}

func notifyText(n Notifier, cat *messages.Catalog, chatID int64, key string, data any) error {
	text, err := cat.Text("hero", key, data)
	if err != nil {
		return err
	}
	n.Notify(chatID, transport.Message{Text: text})
	return nil
}
