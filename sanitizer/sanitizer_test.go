// FILE: lixenwraith/fanlog/sanitizer/sanitizer_test.go
package sanitizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{"raw passes through", "hello\x00world\n", PolicyRaw, "hello\x00world\n"},
		{"txt hex encodes null byte", "test\x00data", PolicyTxt, "test<00>data"},
		{"txt hex encodes controls", "bell\x07tab\x09form\x0c", PolicyTxt, "bell<07>tab<09>form<0c>"},
		{"txt keeps printable unicode", "héllo wörld ✓", PolicyTxt, "héllo wörld ✓"},
		{"json escapes newline and quote", "a\"b\nc\\d", PolicyJSON, `a\"b\nc\\d`},
		{"json escapes other controls", "x\x01y\x7f", PolicyJSON, `x\u0001y\u007f`},
		{"shell strips metacharacters", "rm -rf $(ls); echo", PolicyShell, "rm-rflsecho"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ForPolicy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestCustomRuleOrder(t *testing.T) {
	// First matching rule wins
	s := New().
		Rule(FilterWhitespace, TransformStrip).
		Rule(FilterControl, TransformHexEncode)
	assert.Equal(t, "ab<00>", s.Sanitize("a\tb\x00"))
}

func TestAppendReusesBuffer(t *testing.T) {
	s := ForPolicy(PolicyTxt)
	buf := []byte("prefix:")
	buf = s.Append(buf, "x\x01")
	assert.Equal(t, "prefix:x<01>", string(buf))
}

func TestConcurrentUse(t *testing.T) {
	s := ForPolicy(PolicyJSON)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, `q\"\n`, s.Sanitize("q\"\n"))
			}
		}()
	}
	wg.Wait()
}
