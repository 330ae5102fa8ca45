// Package chunker divides source files into semantically bounded chunks for
// AI summarization.
//
// Chunks are created at natural code boundaries (functions, classes, types)
// for the supported languages, and at pure size boundaries for everything
// else.
//
// # Basic Usage
//
//	c := chunker.New(chunker.Options{
//	    MaxChunkSize: 2000,
//	    Overlap:      400,
//	    Semantic:     true,
//	})
//	chunks := c.Chunk(file)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("chunk %d: %s lines %d-%d\n",
//	        chunk.Index, chunk.Kind, chunk.StartLine, chunk.EndLine)
//	}
//
// # Partition Invariant
//
// Chunk spans within a file never overlap, and concatenating chunk texts in
// index order reconstructs the file byte for byte. The Overlap field sits
// outside the partition: it repeats the trailing window of the previous
// chunk as marked context for the provider and is excluded from
// reconstruction.
//
// # Sizing Rules
//
//   - A structural unit never splits unless the unit alone exceeds
//     MaxChunkSize; then it splits at line boundaries and the tail pieces
//     are marked blob continuations.
//   - A single line larger than MaxChunkSize is emitted whole and flagged
//     Oversized, never truncated. Consumers can apply provider-side token
//     limits to such chunks.
//   - An empty file yields zero chunks.
//
// # Determinism
//
// Chunking holds no state and uses no randomness: the same content and
// options always produce a byte-identical chunk sequence.
package chunker
