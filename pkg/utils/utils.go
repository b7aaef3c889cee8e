package utils

import "os"

func GetDefaultOutputDir() string {
	tmpDir, err := os.MkdirTemp("", "md2anki-output-*")
	if err != nil {
		// If we can't create a temp directory, fall back to local directory
		return "md2anki-decks"
	}
	return tmpDir
}
