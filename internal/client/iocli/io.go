package iocli

//go:generate moq -out io_mock.go . IO

// IO is the terminal seen by interactive commands.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput prints prompt and returns the next trimmed line.
	// Returns io.EOF when input is exhausted
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
