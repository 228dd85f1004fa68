package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/artman/internal/article"
)

// Constants for output formatting.
const (
	ListTitleMaxLen  = 50 // Used in list command output
	TextWrapWidth    = 60 // Standard text wrap width
	DetailWrapIndent = "          "
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONLine writes a value as compact single-line JSON to stdout.
func outputJSONLine(v any) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	runExitHooks()
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// DeleteResponse is the response for the delete command.
type DeleteResponse struct {
	Status      string `json:"status"`
	ID          string `json:"id"`
	FileRemoved bool   `json:"file_removed"`
	FileError   string `json:"file_error,omitempty"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range strings.Fields(text) {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}

// printArticleDetail prints one article in the human detail layout.
func printArticleDetail(a article.Article) {
	fmt.Println(a.ID)
	fmt.Println(strings.Repeat("═", 70))
	fmt.Println()

	fmt.Printf("Title:    %s\n", wrapText(a.Title, TextWrapWidth, DetailWrapIndent))
	if a.Author != "" {
		fmt.Printf("Authors:  %s\n", wrapText(a.Author, TextWrapWidth, DetailWrapIndent))
	}
	if a.DOI != "" {
		fmt.Printf("DOI:      %s\n", a.DOI)
	}
	if !a.CreatedAt.IsZero() {
		fmt.Printf("Added:    %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if a.HasFile() {
		fmt.Printf("File:     %s\n", a.FileRef())
	}

	if a.Summary != "" {
		fmt.Println()
		fmt.Println("Summary:")
		fmt.Printf("  %s\n", wrapText(a.Summary, 68, "  "))
	}
	if a.Notes != "" {
		fmt.Println()
		fmt.Println("Notes:")
		fmt.Printf("  %s\n", wrapText(a.Notes, 68, "  "))
	}
}
