package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/slotwise/slotctl/internal/application"
	"github.com/slotwise/slotctl/internal/domain"
)

type RenderOptions struct {
	// ShowSessions includes the container/session cross-check lines.
	ShowSessions bool
}

func renderView(r application.Report, opts RenderOptions, s styles) string {
	market := r.Market
	if market == "" {
		market = "all markets"
	}
	lines := []string{
		s.title.Render("Slot Status"),
		s.header.Render(fmt.Sprintf("wallet %s on %s (%s)", r.Wallet.Short(), r.Chain, market)),
	}

	if len(r.Owned) == 0 {
		lines = append(lines, s.empty.Render("No slots owned by this wallet."))
	} else {
		lines = append(lines, renderCoverage(r, s))
	}

	lines = append(lines,
		bucketLine("running", r.Running, s.bucketKey, s.good),
		bucketLine("not running", r.NotRunning, s.bucketKey, badWhenNonEmpty(r.NotRunning, s)),
		bucketLine("orphaned", r.Orphaned, s.bucketKey, warnWhenNonEmpty(r.Orphaned, s)),
	)

	if len(r.Unparsed) > 0 {
		lines = append(lines, s.warning.Render(
			fmt.Sprintf("ignored %d container(s) with unrecognized names: %s", len(r.Unparsed), strings.Join(r.Unparsed, ", "))))
	}

	if opts.ShowSessions {
		lines = append(lines, s.section.Render(renderSessionChecks(r, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCoverage(r application.Report, s styles) string {
	pct := 0.0
	if len(r.Owned) > 0 {
		pct = float64(len(r.Running)) / float64(len(r.Owned)) * 100
	}
	bar := renderProgressBar(pct, 24, s)
	label := s.bucketKey.Render("coverage:")
	meta := s.detail.Render(fmt.Sprintf("%d/%d owned slots running", len(r.Running), len(r.Owned)))

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", meta)
}

func renderSessionChecks(r application.Report, s styles) string {
	parts := []string{
		bucketLine("containers without log sessions", r.ContainersWithoutSessions, s.bucketKey, warnWhenNonEmpty(r.ContainersWithoutSessions, s)),
		bucketLine("log sessions without containers", r.SessionsWithoutContainers, s.bucketKey, warnWhenNonEmpty(r.SessionsWithoutContainers, s)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func bucketLine(label string, ids []domain.SlotID, keyStyle, valueStyle lipgloss.Style) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		keyStyle.Render(label+":"),
		" ",
		valueStyle.Render(fmt.Sprintf("%d", len(ids))),
		" ",
		valueStyle.Faint(len(ids) == 0).Render(domain.FormatSlotIDs(ids)),
	)
}

func badWhenNonEmpty(ids []domain.SlotID, s styles) lipgloss.Style {
	if len(ids) > 0 {
		return s.bad
	}
	return s.good
}

func warnWhenNonEmpty(ids []domain.SlotID, s styles) lipgloss.Style {
	if len(ids) > 0 {
		return s.warning
	}
	return s.good
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(math.Round(float64(width) * percent / 100))
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}
