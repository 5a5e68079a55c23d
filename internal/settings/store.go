package settings

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
)

// DocumentPath is where the settings document lives in a storage backend.
const DocumentPath = "settings.json"

var (
	ErrTypeMismatch = errors.New("settings: type mismatch")
	ErrUnknownKey   = errors.New("settings: unknown key")
)

// Saver is told about every change. A persist.Coalescer satisfies it.
type Saver interface {
	RequestSave() error
}

// Store holds the settings document. It is not safe for concurrent use.
type Store struct {
	doc    Document
	saver  Saver
	logger *slog.Logger
}

func NewStore(saver Saver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{doc: DefaultDocument(), saver: saver, logger: logger}
}

func (s *Store) SetSaver(saver Saver) {
	s.saver = saver
}

// Load merges a stored document over the defaults. Empty or malformed input
// leaves the defaults in place and requests a save so the file on disk is
// repaired. Recognised keys of the wrong type keep their default; unknown keys
// are preserved.
func (s *Store) Load(data []byte) error {
	s.doc = DefaultDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		s.logger.Info("settings missing, writing defaults")
		return s.changed()
	}
	stored, err := parseDocument(data)
	if err != nil {
		s.logger.Warn("settings malformed, restoring defaults", "error", err)
		return s.changed()
	}

	backfilled := false
	for _, e := range defaults {
		v, ok := stored.Get(e.key)
		switch {
		case !ok:
			backfilled = true
		case v.Kind() != e.value.Kind():
			s.logger.Warn("settings value has wrong type, keeping default",
				"key", e.key, "want", e.value.Kind(), "have", v.Kind())
			backfilled = true
		default:
			s.doc.set(e.key, v)
		}
	}
	for _, k := range stored.Keys() {
		if _, known := Default(k); known {
			continue
		}
		v, _ := stored.Get(k)
		s.doc.set(k, v)
	}
	if backfilled {
		return s.changed()
	}
	return nil
}

func (s *Store) Marshal() ([]byte, error) {
	return s.doc.MarshalJSON()
}

func (s *Store) Keys() []string {
	return s.doc.Keys()
}

func (s *Store) Get(key string) (Value, error) {
	v, ok := s.doc.Get(key)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return v, nil
}

func (s *Store) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, err := v.AsBool()
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Number(key string) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := v.AsNumber()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (s *Store) String(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	str, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return str, nil
}

// Set stores v under key. Recognised keys only accept their default's kind.
// Setting an equal value does not request a save.
func (s *Store) Set(key string, v Value) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrUnknownKey)
	}
	if def, known := Default(key); known && def.Kind() != v.Kind() {
		return fmt.Errorf("%s: %w: want %s, have %s", key, ErrTypeMismatch, def.Kind(), v.Kind())
	}
	if cur, ok := s.doc.Get(key); ok && cur.Equal(v) {
		return nil
	}
	s.doc.set(key, v)
	return s.changed()
}

func (s *Store) SetBool(key string, b bool) error { return s.Set(key, Bool(b)) }

func (s *Store) SetNumber(key string, n float64) error { return s.Set(key, Number(n)) }

func (s *Store) SetString(key, str string) error { return s.Set(key, String(str)) }

// Parse interprets raw for key: recognised keys use their default's kind,
// unknown keys are read as JSON and fall back to a string.
func (s *Store) Parse(key, raw string) (Value, error) {
	if def, known := Default(key); known {
		return ParseValue(def.Kind(), raw)
	}
	if cur, ok := s.doc.Get(key); ok && cur.Kind() != KindRaw {
		return ParseValue(cur.Kind(), raw)
	}
	return ParseValue(KindRaw, raw)
}

func (s *Store) changed() error {
	if s.saver == nil {
		return nil
	}
	return s.saver.RequestSave()
}
