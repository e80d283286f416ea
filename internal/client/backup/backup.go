// Package backup exports and imports the client's full data set as a
// single sealed document: settings plus every known collection.
package backup

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"golang.org/x/crypto/chacha20poly1305"
)

// application tags every backup; import refuses documents carrying a
// different tag.
const application = "GTACOMPTA"

// formatVersion identifies the sealed layout below.
const formatVersion = 2

// magic prefixes every sealed backup file.
var magic = []byte("GTACBAK1")

var (
	// ErrNotABackup means the file does not start with the backup magic.
	ErrNotABackup = errors.New("not a GTACOMPTA backup file")
	// ErrWrongApplication means the document belongs to another program.
	ErrWrongApplication = errors.New("backup was not produced by GTACOMPTA")
)

// Document is one full backup: user settings and every collection,
// flattened at the top level of the JSON object next to the metadata
// fields.
type Document struct {
	Version      int
	ExportDate   string
	UserSettings map[string]any
	Collections  map[string][]models.Record
}

// NewDocument returns an empty document stamped with the current time.
func NewDocument() *Document {
	return &Document{
		Version:      formatVersion,
		ExportDate:   time.Now().Format(time.RFC3339),
		UserSettings: map[string]any{},
		Collections:  map[string][]models.Record{},
	}
}

// MarshalJSON flattens collections beside the metadata fields:
// {version, exportDate, application, userSettings, <collection>: [...]}.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"version":      d.Version,
		"exportDate":   d.ExportDate,
		"application":  application,
		"userSettings": d.UserSettings,
	}
	for name, records := range d.Collections {
		out[name] = records
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the metadata fields from the flattened
// collections and validates the application tag.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var tag string
	if err := json.Unmarshal(raw["application"], &tag); err != nil || tag != application {
		return ErrWrongApplication
	}

	if v, ok := raw["version"]; ok {
		_ = json.Unmarshal(v, &d.Version)
	}
	if v, ok := raw["exportDate"]; ok {
		_ = json.Unmarshal(v, &d.ExportDate)
	}
	if v, ok := raw["userSettings"]; ok {
		_ = json.Unmarshal(v, &d.UserSettings)
	}

	d.Collections = map[string][]models.Record{}
	for name, value := range raw {
		switch name {
		case "version", "exportDate", "application", "userSettings":
			continue
		}
		var records []models.Record
		if err := json.Unmarshal(value, &records); err != nil {
			// Skip non-array fields from future format revisions.
			continue
		}
		d.Collections[name] = records
	}
	return nil
}

// Seal serializes and encrypts the document with a key derived from the
// passphrase. Layout: magic | 24-byte nonce | XChaCha20-Poly1305 box.
func Seal(doc *Document, passphrase string) ([]byte, error) {
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize backup: %w", err)
	}

	aead, err := newAEAD(passphrase)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, magic)
	return out, nil
}

// Open decrypts and parses a sealed backup. A wrong passphrase or a
// tampered file fails authentication; a foreign document fails the
// application-tag check.
func Open(data []byte, passphrase string) (*Document, error) {
	aead, err := newAEAD(passphrase)
	if err != nil {
		return nil, err
	}

	if len(data) < len(magic)+aead.NonceSize() {
		return nil, ErrNotABackup
	}
	if string(data[:len(magic)]) != string(magic) {
		return nil, ErrNotABackup
	}

	nonce := data[len(magic) : len(magic)+aead.NonceSize()]
	box := data[len(magic)+aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, box, magic)
	if err != nil {
		return nil, fmt.Errorf("decrypt backup (wrong passphrase?): %w", err)
	}

	var doc Document
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	return &doc, nil
}

// Export seals the document and writes it to path.
func Export(path string, doc *Document, passphrase string) error {
	data, err := Seal(doc, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import reads and opens a sealed backup from path.
func Import(path string, passphrase string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return Open(data, passphrase)
}

func newAEAD(passphrase string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(passphrase))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}
