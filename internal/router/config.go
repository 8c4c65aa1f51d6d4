package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/faqbot/internal/lang"
)

// Timeouts bounds each kind of external call made while routing.
type Timeouts struct {
	Translation time.Duration
	Retrieval   time.Duration
	Generation  time.Duration
}

// Config holds the acceptance thresholds and confidence floors of the router.
type Config struct {
	FAQThreshold         float64
	RetrievalThreshold   float64
	RAGFloor             float64
	GenerativeConfidence float64
	TopK                 int
	MinQueryTerms        int
	Pivot                lang.Code
	HandoffMessages      map[lang.Code]string
	Timeouts             Timeouts
}

// DefaultConfig returns the thresholds faqbot ships with.
func DefaultConfig() Config {
	return Config{
		FAQThreshold:         0.6,
		RetrievalThreshold:   0.5,
		RAGFloor:             0.45,
		GenerativeConfidence: 0.3,
		TopK:                 3,
		MinQueryTerms:        2,
		Pivot:                lang.English,
		HandoffMessages: map[lang.Code]string{
			lang.English: "I'm not able to answer that right now. A member of staff will get back to you.",
		},
		Timeouts: Timeouts{
			Translation: 5 * time.Second,
			Retrieval:   5 * time.Second,
			Generation:  30 * time.Second,
		},
	}
}

// Validate enforces 1 >= FAQThreshold >= RAGFloor >= GenerativeConfidence > 0,
// which keeps the strategy floors ordered faq >= rag >= generative >= handoff.
func (c Config) Validate() error {
	if c.FAQThreshold <= 0 || c.FAQThreshold > 1 {
		return fmt.Errorf("faq threshold %v must be in (0, 1]", c.FAQThreshold)
	}
	if c.RAGFloor > c.FAQThreshold {
		return fmt.Errorf("rag floor %v exceeds faq threshold %v", c.RAGFloor, c.FAQThreshold)
	}
	if c.GenerativeConfidence > c.RAGFloor {
		return fmt.Errorf("generative confidence %v exceeds rag floor %v", c.GenerativeConfidence, c.RAGFloor)
	}
	if c.GenerativeConfidence <= 0 {
		return fmt.Errorf("generative confidence must be positive")
	}
	if c.RetrievalThreshold < 0 || c.RetrievalThreshold > 1 {
		return fmt.Errorf("retrieval threshold %v must be in [0, 1]", c.RetrievalThreshold)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top k must be positive")
	}
	if c.Pivot == "" {
		return fmt.Errorf("pivot language is required")
	}
	if strings.TrimSpace(c.HandoffMessages[c.Pivot]) == "" {
		return fmt.Errorf("%w: no message for pivot language %q", ErrHandoffConfiguration, c.Pivot)
	}
	return nil
}
