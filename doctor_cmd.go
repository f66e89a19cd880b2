package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/studybuddy-ai/studybuddy/internal/audio"
	"github.com/studybuddy-ai/studybuddy/internal/engines"
)

var (
	doctorRender bool

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Check speech and audio setup",
		Long: paragraph(fmt.Sprintf("\n%s which speech backends and audio device StudyBuddy can use, "+
			"and play a short silent clip through the device.", keyword("Report"))),
		Example: paragraph("studybuddy doctor\nstudybuddy doctor --render"),
		Args:    cobra.NoArgs,
		RunE:    runDoctor,
	}
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorRender, "render", false, "also render a test phrase (uses the network for google)")
}

type check struct {
	name string
	ok   bool
	info string
}

func printChecks(w io.Writer, checks []check) {
	for _, c := range checks {
		mark := keyword("✓")
		if !c.ok {
			mark = errorText("✗")
		}
		fmt.Fprintf(w, "%s %-12s %s\n", mark, c.name, faint(c.info))
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	p := audio.DetectPlatform()
	checks := []check{
		{"platform", true, fmt.Sprintf("%s, %s", p.OS, p.AudioSubsystem)},
		{"device", p.HasAudioDevice && !p.IsCI, fmt.Sprintf("has device: %v, ci or mock: %v", p.HasAudioDevice, p.IsCI)},
	}
	for _, tool := range []string{"espeak-ng", "espeak", "say", "gtts-cli", "pdftotext"} {
		path, err := exec.LookPath(tool)
		info := "not installed"
		if err == nil {
			info = path
		}
		checks = append(checks, check{tool, err == nil, info})
	}

	v, err := newVoice(cfg.Speech)
	if err != nil {
		checks = append(checks, check{"speech", false, err.Error()})
		printChecks(cmd.OutOrStdout(), checks)
		return nil
	}
	defer v.Close() //nolint:errcheck

	st := v.Status()
	checks = append(checks,
		check{"direct", st.Direct != "", orNone(st.Direct)},
		check{"renderer", st.Renderer != "", orNone(st.Renderer)},
		cacheCheck(v),
	)

	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	start := time.Now()
	err = playSilence(ctx, audioType(cfg.Speech))
	checks = append(checks, playbackCheck(err, time.Since(start)))

	if doctorRender {
		rctx, rcancel := context.WithTimeout(ctx, 20*time.Second)
		mp3 := v.RenderForTransport(rctx, "StudyBuddy is ready.")
		rcancel()
		info := "no audio"
		if mp3 != nil {
			info = humanize.Bytes(uint64(len(mp3)))
		}
		checks = append(checks, check{"render", mp3 != nil, info})
	}

	checks = append(checks, assistantCheck())
	printChecks(cmd.OutOrStdout(), checks)
	return nil
}

func playSilence(ctx context.Context, t audio.ContextType) error {
	player := audio.NewPlayer(audio.PlayerConfig{Type: t, Volume: cfg.Speech.Volume, Logger: componentLogger("audio")})
	defer player.Close() //nolint:errcheck
	return player.Play(ctx, audio.SilentMP3(8))
}

func playbackCheck(err error, took time.Duration) check {
	if err != nil {
		return check{"playback", false, err.Error()}
	}
	return check{"playback", true, "played silent clip in " + took.Round(time.Millisecond).String()}
}

func assistantCheck() check {
	c, err := newAssistant(cfg.LLM)
	if err != nil {
		return check{"assistant", false, err.Error()}
	}
	return check{"assistant", true, c.Model()}
}

func cacheCheck(v *voice) check {
	c, ok := v.renderer.(*engines.CachedRenderer)
	if !ok {
		return check{"cache", true, "off"}
	}
	s := c.Stats()
	info := fmt.Sprintf("%s of %s", humanize.Bytes(uint64(s.Size)), humanize.Bytes(uint64(s.Capacity))) //nolint:gosec
	if cfg.Speech.DiskCacheMB > 0 {
		info += ", clips kept in " + diskCacheDir(cfg.Speech)
	}
	return check{"cache", true, info}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
