package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// termPassword prompts on stderr and reads without echo.
func termPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
