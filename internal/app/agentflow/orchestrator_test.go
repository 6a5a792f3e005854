package agentflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloGalante/solace/internal/app/agentflow"
	"github.com/PabloGalante/solace/internal/app/crisis"
	"github.com/PabloGalante/solace/internal/app/emotion"
	"github.com/PabloGalante/solace/internal/domain"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.MemoryEntry
}

func (s *recordingSink) Enqueue(_ context.Context, e domain.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// countingScorer records whether the classifier was reached.
type countingScorer struct {
	calls int
}

func (s *countingScorer) Score(string) (float64, float64, error) {
	s.calls++
	return 0, 0.5, nil
}

type stubLLM struct {
	reply string
	err   error
	delay time.Duration
	got   domain.ConversationContext
}

func (l *stubLLM) GenerateReply(ctx context.Context, _ string, convCtx domain.ConversationContext) (string, error) {
	l.got = convCtx
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return l.reply, l.err
}

func TestRun_CrisisShortCircuits(t *testing.T) {
	scorer := &countingScorer{}
	sink := &recordingSink{}
	llm := &stubLLM{reply: "should not be used"}
	o := agentflow.NewDefaultOrchestrator(agentflow.Options{
		Classifier: emotion.NewClassifier(scorer),
		LLM:        llm,
		Memory:     sink,
	})

	tc := domain.NewTherapeuticContext()
	res := o.Run(context.Background(), agentflow.TurnInput{
		SessionID: "s1",
		UserID:    "u1",
		Text:      "I want to end my life",
		Context:   tc,
	})

	if !res.IsCrisis || res.Response != crisis.Response {
		t.Fatalf("expected verbatim crisis response, got %+v", res)
	}
	if scorer.calls != 0 {
		t.Fatalf("classifier should not run on crisis turns")
	}
	if res.Emotion != domain.EmotionCrisis || res.Mode != "" || res.Intervention != nil {
		t.Fatalf("no classifier output should be populated: %+v", res)
	}
	if len(sink.entries) != 0 {
		t.Fatalf("crisis turns must not be written to memory")
	}
	if llm.got.SessionID != "" {
		t.Fatalf("llm should not be called on crisis turns")
	}
	if tc.ConversationDepth != 0 {
		t.Fatalf("crisis turns do not advance the context, depth %d", tc.ConversationDepth)
	}
	if res.VoiceTone.Speed != 0.8 || res.VoiceTone.Warmth != 1.0 {
		t.Fatalf("expected crisis voice tone, got %+v", res.VoiceTone)
	}
}

func TestRun_NormalTurn(t *testing.T) {
	sink := &recordingSink{}
	o := agentflow.NewDefaultOrchestrator(agentflow.Options{Memory: sink})
	tc := domain.NewTherapeuticContext()

	res := o.Run(context.Background(), agentflow.TurnInput{
		SessionID: "s1",
		UserID:    "u1",
		Text:      "I'm so worried about my exams, it will be a disaster",
		Context:   tc,
	})

	if res.IsCrisis {
		t.Fatalf("unexpected crisis")
	}
	if res.Emotion != domain.EmotionAnxious {
		t.Fatalf("expected anxious, got %s", res.Emotion)
	}
	if res.Mode != domain.ModeCBT {
		t.Fatalf("expected cbt, got %s", res.Mode)
	}
	if !strings.Contains(res.Response, "I notice you might be expecting the worst possible outcome.") {
		t.Fatalf("expected distortion challenge in %q", res.Response)
	}
	if res.Depth != 1 || tc.ConversationDepth != 1 {
		t.Fatalf("expected depth 1, got %d", res.Depth)
	}
	if res.LLMUsed {
		t.Fatalf("no llm configured")
	}

	if len(sink.entries) != 1 {
		t.Fatalf("expected one memory entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Emotion != domain.EmotionAnxious || e.TherapyMode != domain.ModeCBT || e.UserID != "u1" {
		t.Fatalf("unexpected memory entry %+v", e)
	}
	if len(e.DetectedPatterns) == 0 || e.DetectedPatterns[0] != string(domain.DistortionCatastrophizing) {
		t.Fatalf("expected catastrophizing pattern, got %v", e.DetectedPatterns)
	}
	if len(e.Concerns) != 1 || e.Concerns[0] != "anxious about school" {
		t.Fatalf("expected school concern, got %v", e.Concerns)
	}
}

func TestRun_LLMDelegation(t *testing.T) {
	llm := &stubLLM{reply: "  A warmer reply.  "}
	o := agentflow.NewDefaultOrchestrator(agentflow.Options{LLM: llm, LLMTimeout: time.Second})

	res := o.Run(context.Background(), agentflow.TurnInput{SessionID: "s1", UserID: "u1", Text: "I feel lonely"})

	if !res.LLMUsed || res.Response != "A warmer reply." {
		t.Fatalf("expected llm reply, got %+v", res)
	}
	if llm.got.Draft == "" || llm.got.Emotion != domain.EmotionLonely || llm.got.Framework != domain.FrameworkACT {
		t.Fatalf("llm should receive the draft and turn context, got %+v", llm.got)
	}
}

func TestRun_LLMFailureFallsBackToDraft(t *testing.T) {
	cases := map[string]*stubLLM{
		"error":   {err: errors.New("quota exceeded")},
		"empty":   {reply: "   "},
		"timeout": {reply: "too late", delay: time.Second},
	}

	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			o := agentflow.NewDefaultOrchestrator(agentflow.Options{LLM: llm, LLMTimeout: 20 * time.Millisecond})
			res := o.Run(context.Background(), agentflow.TurnInput{SessionID: "s1", Text: "I'm tired"})

			if res.LLMUsed {
				t.Fatalf("llm reply should be discarded")
			}
			if !strings.HasPrefix(res.Response, "What you're feeling makes complete sense") {
				t.Fatalf("expected rule-based reply, got %q", res.Response)
			}
			if res.Mode != domain.ModeMotivational {
				t.Fatalf("expected motivational, got %s", res.Mode)
			}
		})
	}
}

type failingAgent struct{ panics bool }

func (failingAgent) Name() string { return "failing" }

func (a failingAgent) Run(context.Context, *agentflow.Turn) error {
	if a.panics {
		panic("boom")
	}
	return errors.New("broken")
}

func TestRun_AgentFailureStillAnswers(t *testing.T) {
	for _, panics := range []bool{false, true} {
		o := agentflow.NewOrchestrator(failingAgent{panics: panics})
		res := o.Run(context.Background(), agentflow.TurnInput{Text: "hello"})
		if res.Response != agentflow.FallbackResponse {
			t.Fatalf("panics=%v: expected fallback response, got %q", panics, res.Response)
		}
	}
}

func TestRun_HighIntensityAngerIsSupportive(t *testing.T) {
	o := agentflow.NewDefaultOrchestrator(agentflow.Options{
		Classifier: emotion.NewClassifier(fixedPolarity(-0.9)),
	})
	res := o.Run(context.Background(), agentflow.TurnInput{Text: "I'm furious"})

	if res.Emotion != domain.EmotionAngry || res.Mode != domain.ModeSupportive {
		t.Fatalf("expected angry/supportive, got %s/%s", res.Emotion, res.Mode)
	}
}

type fixedPolarity float64

func (p fixedPolarity) Score(string) (float64, float64, error) {
	return float64(p), 0.5, nil
}
