package extract

import (
	"os"
	"strings"
)

// TXTToText reads a plain-text file verbatim, dropping invalid byte
// sequences rather than failing the read.
func TXTToText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
