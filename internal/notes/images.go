package notes

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IntegrateImages replaces each marker in document order with a Markdown image
// pointing at the matching entry of refs. Markers beyond len(refs) are dropped.
// Text without markers is returned unchanged.
func IntegrateImages(text, marker string, refs []string) string {
	re := regexp.MustCompile(`\s?` + regexp.QuoteMeta(strings.TrimSpace(marker)) + `\s?`)
	parts := re.Split(text, -1)
	if len(parts) == 1 {
		return text
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for i := 1; i < len(parts); i++ {
		if i-1 < len(refs) {
			fmt.Fprintf(&b, "\n\n![Illustration %d](%s)\n\n", i, refs[i-1])
		} else if b.Len() > 0 && parts[i] != "" {
			// marker dropped; keep the words around it apart
			b.WriteByte(' ')
		}
		b.WriteString(parts[i])
	}
	return b.String()
}

// CountMarkers reports how many markers text carries.
func CountMarkers(text, marker string) int {
	return strings.Count(text, strings.TrimSpace(marker))
}

// SelectFrames picks n frames spread evenly over the ordered list, keeping
// their order. All frames are returned when n >= len(frames).
func SelectFrames(frames []string, n int) []string {
	if n <= 0 || len(frames) == 0 {
		return nil
	}
	if n >= len(frames) {
		return append([]string(nil), frames...)
	}
	out := make([]string, 0, n)
	step := float64(len(frames)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, frames[int(float64(i)*step+step/2)])
	}
	return out
}

// PromoteKeyframes copies frames into destDir and returns the absolute
// permanent paths in the same order.
func PromoteKeyframes(frames []string, destDir string) ([]string, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	out := make([]string, 0, len(frames))
	for _, src := range frames {
		dst := filepath.Join(destDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return out, fmt.Errorf("promote %s: %w", filepath.Base(src), err)
		}
		abs, err := filepath.Abs(dst)
		if err != nil {
			abs = dst
		}
		out = append(out, abs)
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
