// Package oracle implements the Question Oracle Adapter (SPEC_FULL.md §4.6):
// it requests topic+difficulty questions from a remote provider and falls
// back to a built-in pool when the remote is unreachable or under-delivers.
// Grounded on original_source/app/services/ai_service.py's TimewebClient.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Question is one validated item returned by the oracle. CorrectOption is
// 1-based here; the engine converts it to 0-based only at insert time
// (SPEC_FULL.md §4.6, spec.md §9's asymmetry note).
type Question struct {
	Text          string
	Options       [4]string
	CorrectOption int
}

// Client requests questions from a remote LLM-backed provider and falls
// back to fallbackPool on failure or short delivery.
type Client struct {
	httpClient *http.Client
	apiKey     string
	apiBase    string
	model      string
	rng        *rand.Rand
}

// NewClient builds a Client. An empty apiKey disables the remote provider
// entirely (fallback-only), mirroring TimewebClient.is_configured.
func NewClient(apiKey, apiBase, model string, timeout time.Duration, rng *rand.Rand) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		apiBase:    apiBase,
		model:      model,
		rng:        rng,
	}
}

// Fetch returns at least `count` validated questions for topic+difficulty.
// It attempts the remote provider up to 3 times; any shortfall is filled
// from the fallback pool, per SPEC_FULL.md §4.6.
func (c *Client) Fetch(ctx context.Context, topic, difficulty string, count int) ([]Question, error) {
	used := make(map[string]bool, count)
	var got []Question

	if c.apiKey != "" {
		got = c.fetchRemote(ctx, topic, difficulty, count, used)
	}

	if len(got) < count {
		if len(got) > 0 {
			log.Printf("[Oracle] remote delivered %d/%d questions, filling from fallback pool", len(got), count)
		}
		got = append(got, fillFromFallback(c.rng, count-len(got), used)...)
	}

	if len(got) > count {
		got = got[:count]
	}
	return got, nil
}

func (c *Client) fetchRemote(ctx context.Context, topic, difficulty string, count int, used map[string]bool) []Question {
	for attempt := 1; attempt <= 3; attempt++ {
		questions, err := c.requestOnce(ctx, topic, difficulty, count)
		if err != nil {
			log.Printf("[Oracle] remote request attempt %d/3 failed: %v", attempt, err)
			continue
		}
		valid := validate(questions, count, used)
		if len(valid) >= count {
			return valid
		}
		log.Printf("[Oracle] attempt %d/3 yielded %d/%d valid questions, retrying", attempt, len(valid), count)
	}
	return nil
}

type remoteQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) requestOnce(ctx context.Context, topic, difficulty string, count int) ([]remoteQuestion, error) {
	prompt := fmt.Sprintf(
		"Generate exactly %d unique multiple-choice quiz questions on the topic %q at %s difficulty. "+
			"Respond with a JSON array of objects: {text, options (4 strings), correct_option (1-4)}.",
		count, topic, difficulty,
	)

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.6,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle provider returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("oracle provider returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			content = strings.TrimPrefix(strings.TrimSpace(parts[1]), "json")
		}
	}

	var questions []remoteQuestion
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		return nil, fmt.Errorf("failed to parse oracle response: %w", err)
	}
	return questions, nil
}

func validate(items []remoteQuestion, count int, used map[string]bool) []Question {
	valid := make([]Question, 0, count)
	for _, item := range items {
		if item.Text == "" || used[item.Text] || len(item.Options) != 4 {
			continue
		}
		if item.CorrectOption < 1 || item.CorrectOption > 4 {
			continue
		}
		var opts [4]string
		copy(opts[:], item.Options)
		valid = append(valid, Question{Text: item.Text, Options: opts, CorrectOption: item.CorrectOption})
		used[item.Text] = true
		if len(valid) >= count {
			break
		}
	}
	return valid
}

func fillFromFallback(rng *rand.Rand, count int, used map[string]bool) []Question {
	pool := make([]Question, 0, len(fallbackPool))
	for _, q := range fallbackPool {
		if !used[q.Text] {
			pool = append(pool, q)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > count {
		pool = pool[:count]
	}
	for _, q := range pool {
		used[q.Text] = true
	}
	return pool
}

// fallbackPool is the built-in pool used when the remote provider is
// disabled, unreachable, or under-delivers. Grounded on ai_service.py's
// FALLBACK_QUESTIONS, translated and extended for 4-option English quizzes.
// It must stay large enough to fill a whole deck on its own: 2 teams x 7
// questions_per_team = 14 at the upper bound of spec.md §3.
var fallbackPool = []Question{
	{"Which of these is a programming language?", [4]string{"HTTP", "Python", "SQLite", "CSS"}, 2},
	{"Which protocol is typically used for websockets?", [4]string{"ws/wss", "ftp", "smtp", "ssh"}, 1},
	{"What does a SQLite database do?", [4]string{"Renders a UI", "Stores data", "Compiles code", "Runs a browser"}, 2},
	{"Which HTTP method is typically used to create a resource?", [4]string{"GET", "PUT", "POST", "DELETE"}, 3},
	{"Which of these belongs to the frontend?", [4]string{"HTML", "SQL", "Linux kernel", "Docker image"}, 1},
	{"Which best describes Gin?", [4]string{"A Go web framework", "An IDE", "A DBMS", "An operating system"}, 1},
	{"Which format is most commonly used for API data exchange?", [4]string{"JPEG", "JSON", "MP3", "PDF"}, 2},
	{"Which keyword starts a goroutine in Go?", [4]string{"go", "async", "spawn", "thread"}, 1},
	{"What does CORS stand for?", [4]string{"Cross-Origin Resource Sharing", "Client Object Request Service", "Cached Origin Request System", "Common Object Rendering Spec"}, 1},
	{"Which data structure underlies a Go map?", [4]string{"Linked list", "Hash table", "B-tree", "Array"}, 2},
	{"Which package manages dependencies in Go?", [4]string{"go mod", "npm", "pip", "cargo"}, 1},
	{"What is the zero value of a Go pointer?", [4]string{"0", "nil", "\"\"", "undefined"}, 2},
	{"Which command starts a container from an image?", [4]string{"docker run", "docker push", "docker build", "docker login"}, 1},
	{"Which status code means Not Found?", [4]string{"200", "301", "404", "500"}, 3},
	{"Which of these is a relational database?", [4]string{"Redis", "PostgreSQL", "Kafka", "Nginx"}, 2},
	{"What does TLS provide for a connection?", [4]string{"Compression", "Encryption", "Caching", "Routing"}, 2},
	{"Which Go construct is used to wait for several goroutines?", [4]string{"sync.WaitGroup", "defer", "select{}", "recover"}, 1},
	{"Which header carries a bearer token in HTTP?", [4]string{"Content-Type", "Authorization", "Accept", "Origin"}, 2},
}
