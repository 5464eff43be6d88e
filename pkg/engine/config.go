package engine

import "github.com/printology/storefront/pkg/api"

// DefaultGreeting opens every chat window.
const DefaultGreeting = "Halo! 👋 Saya AI Assistant Printology. Saya siap membantu Anda dengan semua kebutuhan cetak dan informasi layanan kami. Ada yang bisa saya bantu?"

// DefaultApology replaces the answer when no model responded.
const DefaultApology = "Maaf, terjadi kesalahan. Semua model AI gagal. Periksa koneksi internet."

// Config holds configuration for the engine.
type Config struct {
	// Greeting is returned by Greeting. Empty uses DefaultGreeting.
	Greeting string

	// Apology is the reply text of an exhausted acquisition. Empty uses
	// DefaultApology.
	Apology string

	// Validation limits applied to incoming requests.
	Validation api.ValidationConfig
}

func (c Config) greeting() string {
	if c.Greeting == "" {
		return DefaultGreeting
	}
	return c.Greeting
}

func (c Config) apology() string {
	if c.Apology == "" {
		return DefaultApology
	}
	return c.Apology
}
