package ingest

// Piece is one chunk of source text with its rune offset in the input.
type Piece struct {
	Content string
	Offset  int
}

// ChunkText splits text into overlapping pieces by rune count. Overlap
// is clamped below size so the cursor always advances.
func ChunkText(text string, size, overlap int) []Piece {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	var pieces []Piece
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, Piece{
			Content: string(runes[i:end]),
			Offset:  i,
		})
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return pieces
}
