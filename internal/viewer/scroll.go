package viewer

import (
	"fmt"
	"strings"

	"github.com/mabhi256/livetree/utils"
)

func (m *Model) applyScrolling(content string, viewportHeight int) string {
	lines := strings.Split(content, "\n")
	totalLines := len(lines)

	if totalLines <= viewportHeight {
		return content
	}

	scrollPos := m.scrollPositions[m.activePane]

	maxScroll := totalLines - viewportHeight
	if scrollPos > maxScroll {
		scrollPos = maxScroll
		m.scrollPositions[m.activePane] = scrollPos
	}
	if scrollPos < 0 {
		scrollPos = 0
		m.scrollPositions[m.activePane] = scrollPos
	}

	endPos := scrollPos + viewportHeight
	visibleLines := lines[scrollPos:endPos]

	// last line becomes the scroll indicator
	if scrollPos > 0 || endPos < totalLines {
		scrollInfo := fmt.Sprintf("%s (Line %d-%d of %d) %s",
			utils.MutedStyle.Render("▲"),
			scrollPos+1,
			endPos,
			totalLines,
			utils.MutedStyle.Render("▼"))

		if len(visibleLines) > 0 {
			visibleLines[len(visibleLines)-1] = scrollInfo
		}
	}

	return strings.Join(visibleLines, "\n")
}

func (m *Model) scrollUp(lines int) {
	currentPos := m.scrollPositions[m.activePane]
	m.scrollPositions[m.activePane] = max(currentPos-lines, 0)
}

func (m *Model) scrollDown(lines int) {
	// upper bound is applied in applyScrolling
	m.scrollPositions[m.activePane] += max(lines, 1)
}

// centerOn scrolls pane so that line sits in the middle of the viewport
func (m *Model) centerOn(pane PaneType, line, viewportHeight int) {
	m.scrollPositions[pane] = max(line-viewportHeight/2, 0)
}
