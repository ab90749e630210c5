package utils

// ChunkText splits a long string into sequential chunks of at most
// 'chunkSize' characters. Used to respect the Telegram per-message ceiling:
// every chunk except the last is exactly chunkSize characters long.
// This is a simple character-based splitter; no attempt is made to break at
// word boundaries, strict slicing is safer than losing data.
func ChunkText(text string, chunkSize int) []string {
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	runes := []rune(text)
	totalLen := len(runes)

	var chunks []string
	for i := 0; i < totalLen; i += chunkSize {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks
}
