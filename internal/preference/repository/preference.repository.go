package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	docrepo "naskahlokal/internal/document/repository"
	"naskahlokal/pkg/logger"
)

const (
	KeyLastDocID   = "lastDocId"
	KeyTheme       = "theme"
	KeyRulerColumn = "rulerColumn"

	ThemeDark  = "dark"
	ThemeLight = "light"

	DefaultRulerColumn = 80
)

var ErrInvalidTheme = errors.New("invalid theme")

// PreferenceRepository stores scalar settings under fixed names.
type PreferenceRepository struct {
	DB docrepo.Opener
}

func NewPreferenceRepository(db docrepo.Opener) *PreferenceRepository {
	return &PreferenceRepository{DB: db}
}

func (r *PreferenceRepository) get(ctx context.Context, key string) (string, bool, error) {
	db, err := r.DB.Open(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: open: %w", docrepo.ErrStorageUnavailable, err)
	}
	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to read setting %s: %v", key, err)
		return "", false, fmt.Errorf("%w: read %s: %w", docrepo.ErrStorageUnavailable, key, err)
	}
	return value, true, nil
}

func (r *PreferenceRepository) set(ctx context.Context, key, value string) error {
	db, err := r.DB.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", docrepo.ErrStorageUnavailable, err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		logger.Sugar.Errorf("Failed to write setting %s: %v", key, err)
		return fmt.Errorf("%w: write %s: %w", docrepo.ErrStorageUnavailable, key, err)
	}
	return nil
}

// LastDocID returns the id of the last active document, or "" if none was recorded.
func (r *PreferenceRepository) LastDocID(ctx context.Context) (string, error) {
	v, _, err := r.get(ctx, KeyLastDocID)
	return v, err
}

func (r *PreferenceRepository) SetLastDocID(ctx context.Context, id string) error {
	return r.set(ctx, KeyLastDocID, id)
}

// Theme returns "dark" or "light". Anything else stored reads as light,
// and a missing value reads as dark.
func (r *PreferenceRepository) Theme(ctx context.Context) (string, error) {
	v, ok, err := r.get(ctx, KeyTheme)
	if err != nil {
		return ThemeDark, err
	}
	if !ok || v == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

func (r *PreferenceRepository) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("%w %q: must be %q or %q", ErrInvalidTheme, theme, ThemeDark, ThemeLight)
	}
	return r.set(ctx, KeyTheme, theme)
}

// ToggleTheme flips between dark and light and returns the new theme.
func (r *PreferenceRepository) ToggleTheme(ctx context.Context) (string, error) {
	current, err := r.Theme(ctx)
	if err != nil {
		return current, err
	}
	next := ThemeLight
	if current == ThemeLight {
		next = ThemeDark
	}
	return next, r.SetTheme(ctx, next)
}

// RulerColumn returns the stored column, or 80 when unset or unusable.
func (r *PreferenceRepository) RulerColumn(ctx context.Context) (int, error) {
	v, ok, err := r.get(ctx, KeyRulerColumn)
	if err != nil {
		return DefaultRulerColumn, err
	}
	if !ok {
		return DefaultRulerColumn, nil
	}
	return NormalizeRulerColumn(v), nil
}

// SetRulerColumn stores the column, normalizing unusable values to 80.
func (r *PreferenceRepository) SetRulerColumn(ctx context.Context, column int) (int, error) {
	if column <= 0 {
		column = DefaultRulerColumn
	}
	return column, r.set(ctx, KeyRulerColumn, strconv.Itoa(column))
}

// NormalizeRulerColumn parses raw user input the way the ruler does.
func NormalizeRulerColumn(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultRulerColumn
	}
	return n
}
