// Package input maps key names from the display window and the web viewer
// to player actions.
package input

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Action is a player command bound to a key.
type Action string

const (
	ActionNone            Action = "none"
	ActionCycleProjection Action = "cycle_projection"
	ActionForce180        Action = "force_180"
	ActionForce360        Action = "force_360"
	ActionToggleLayout    Action = "toggle_layout"
	ActionSwapEyes        Action = "swap_eyes"
	ActionFullscreen      Action = "fullscreen"
	ActionOpenFile        Action = "open_file"
	ActionTogglePlay      Action = "toggle_play"
	ActionSeekBack5       Action = "seek_back_5"
	ActionSeekForward5    Action = "seek_forward_5"
	ActionSeekBack10      Action = "seek_back_10"
	ActionSeekForward10   Action = "seek_forward_10"
	ActionZoomIn          Action = "zoom_in"
	ActionZoomOut         Action = "zoom_out"
	ActionLookLeft        Action = "look_left"
	ActionLookRight       Action = "look_right"
	ActionLookUp          Action = "look_up"
	ActionLookDown        Action = "look_down"
	ActionResetView       Action = "reset_view"
	ActionQuit            Action = "quit"

	decilePrefix = "seek_decile_"
)

// SeekDecile returns the action jumping to n tenths of the video.
func SeekDecile(n int) Action {
	return Action(decilePrefix + strconv.Itoa(n))
}

// Decile reports the fraction tenth of a seek_decile action.
func (a Action) Decile() (int, bool) {
	s, ok := strings.CutPrefix(string(a), decilePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 9 {
		return 0, false
	}
	return n, true
}

var namedActions = map[Action]bool{
	ActionNone: true, ActionCycleProjection: true, ActionForce180: true,
	ActionForce360: true, ActionToggleLayout: true, ActionSwapEyes: true,
	ActionFullscreen: true, ActionOpenFile: true, ActionTogglePlay: true,
	ActionSeekBack5: true, ActionSeekForward5: true, ActionSeekBack10: true,
	ActionSeekForward10: true, ActionZoomIn: true, ActionZoomOut: true,
	ActionLookLeft: true, ActionLookRight: true, ActionLookUp: true,
	ActionLookDown: true, ActionResetView: true, ActionQuit: true,
}

// ParseAction validates an action name.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	if namedActions[a] {
		return a, nil
	}
	if _, ok := a.Decile(); ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// DefaultBindings returns the stock key layout.
func DefaultBindings() map[string]Action {
	b := map[string]Action{
		"left":   ActionSeekBack5,
		"right":  ActionSeekForward5,
		"j":      ActionSeekBack10,
		"l":      ActionSeekForward10,
		"k":      ActionTogglePlay,
		"space":  ActionTogglePlay,
		"f":      ActionFullscreen,
		"s":      ActionSwapEyes,
		"m":      ActionToggleLayout,
		"v":      ActionCycleProjection,
		"y":      ActionForce180,
		"u":      ActionForce360,
		"o":      ActionOpenFile,
		"plus":   ActionZoomIn,
		"equal":  ActionZoomIn,
		"minus":  ActionZoomOut,
		"a":      ActionLookLeft,
		"d":      ActionLookRight,
		"up":     ActionLookUp,
		"down":   ActionLookDown,
		"r":      ActionResetView,
		"escape": ActionQuit,
		"q":      ActionQuit,
	}
	for i := 0; i <= 9; i++ {
		b[strconv.Itoa(i)] = SeekDecile(i)
	}
	return b
}

// Keymap resolves key names to actions.
type Keymap struct {
	bindings map[string]Action
}

// NewKeymap applies overrides (key name to action name) on top of the
// defaults. Binding a key to "none" disables it.
func NewKeymap(overrides map[string]string) (*Keymap, error) {
	bindings := DefaultBindings()
	for key, name := range overrides {
		action, err := ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		k := NormalizeKey(key)
		if action == ActionNone {
			delete(bindings, k)
			continue
		}
		bindings[k] = action
	}
	return &Keymap{bindings: bindings}, nil
}

// Lookup returns the action bound to key, accepting any spelling
// NormalizeKey understands.
func (k *Keymap) Lookup(key string) (Action, bool) {
	a, ok := k.bindings[NormalizeKey(key)]
	return a, ok
}

// Bindings returns the key names in order with their actions.
func (k *Keymap) Bindings() [][2]string {
	keys := make([]string, 0, len(k.bindings))
	for key := range k.bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, [2]string{key, string(k.bindings[key])})
	}
	return out
}

var keyAliases = map[string]string{
	" ":           "space",
	"spacebar":    "space",
	"arrowleft":   "left",
	"arrowright":  "right",
	"arrowup":     "up",
	"arrowdown":   "down",
	"esc":         "escape",
	"+":           "plus",
	"kp_add":      "plus",
	"-":           "minus",
	"kp_subtract": "minus",
	"=":           "equal",
	"return":      "enter",
}

// NormalizeKey maps X11 keysym names and browser KeyboardEvent.key values
// onto one lowercase vocabulary.
func NormalizeKey(name string) string {
	if name == " " {
		return "space"
	}
	k := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	if strings.HasPrefix(k, "kp_") && len(k) == 4 && k[3] >= '0' && k[3] <= '9' {
		return k[3:]
	}
	return k
}
