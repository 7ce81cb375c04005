package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions of one scenario
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	debugCode    string
	vars         map[string]string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:   tc,
		vars: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the ACGN assistant is running$`, s.theAssistantIsRunning)

	// Accounts
	sc.Step(`^I request a registration code for "([^"]*)"$`, s.iRequestARegistrationCode)
	sc.Step(`^I register "([^"]*)" as "([^"]*)" with password "([^"]*)"$`, s.iRegister)
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogIn)
	sc.Step(`^I log in as a guest$`, s.iLogInAsAGuest)

	// Generic requests
	sc.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)"$`, s.iSendARequest)
	sc.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with:$`, s.iSendARequestWith)
	sc.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, s.iRememberTheResponseField)

	// Responses
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response field "([^"]*)" should not be empty$`, s.theResponseFieldShouldNotBeEmpty)
	sc.Step(`^the response should be a list of (\d+) items?$`, s.theResponseShouldBeAListOf)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)

	registerAdminSteps(sc, s)
}

func (s *StepsContext) theAssistantIsRunning() error {
	s.authToken = ""
	if err := s.do("GET", "/system/health", nil, ""); err != nil {
		return err
	}
	return s.theResponseStatusShouldBe(http.StatusOK)
}

// expand replaces {name} with remembered values
func (s *StepsContext) expand(text string) string {
	for k, v := range s.vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

func (s *StepsContext) do(method, path string, body []byte, contentType string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+s.expand(path), reader)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) postJSON(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.do("POST", path, body, "application/json")
}

func (s *StepsContext) field(name string) (interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(s.responseBody, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", s.responseBody)
	}
	var cur interface{} = obj
	for _, part := range strings.Split(name, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q not found in %s", name, s.responseBody)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q not found in %s", name, s.responseBody)
		}
	}
	return cur, nil
}

// Accounts

func (s *StepsContext) iRequestARegistrationCode(email string) error {
	if err := s.postJSON("/auth/register/request", map[string]string{"email": email}); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("code request failed with %d: %s", s.response.StatusCode, s.responseBody)
	}
	code, err := s.field("debug_code")
	if err != nil {
		return err
	}
	s.debugCode = fmt.Sprint(code)
	return nil
}

func (s *StepsContext) iRegister(email, username, password string) error {
	if s.debugCode == "" {
		if err := s.iRequestARegistrationCode(email); err != nil {
			return err
		}
	}
	err := s.postJSON("/auth/register/confirm", map[string]string{
		"email":    email,
		"code":     s.debugCode,
		"username": username,
		"password": password,
	})
	s.debugCode = ""
	return err
}

func (s *StepsContext) iLogIn(email, password string) error {
	s.authToken = ""
	if err := s.postJSON("/auth/login", map[string]string{"email": email, "password": password}); err != nil {
		return err
	}
	return s.takeToken()
}

func (s *StepsContext) iLogInAsAGuest() error {
	s.authToken = ""
	if err := s.do("POST", "/auth/guest", nil, ""); err != nil {
		return err
	}
	return s.takeToken()
}

func (s *StepsContext) takeToken() error {
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with %d: %s", s.response.StatusCode, s.responseBody)
	}
	token, err := s.field("access_token")
	if err != nil {
		return err
	}
	s.authToken = fmt.Sprint(token)
	return nil
}

// Generic requests

func (s *StepsContext) iSendARequest(method, path string) error {
	return s.do(method, path, nil, "")
}

func (s *StepsContext) iSendARequestWith(method, path string, body *godog.DocString) error {
	return s.do(method, path, []byte(s.expand(body.Content)), "application/json")
}

func (s *StepsContext) iRememberTheResponseField(name, as string) error {
	v, err := s.field(name)
	if err != nil {
		return err
	}
	s.vars[as] = fmt.Sprint(v)
	return nil
}

// Responses

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(name, expected string) error {
	v, err := s.field(name)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != s.expand(expected) {
		return fmt.Errorf("expected %s to be %q, got %q", name, expected, got)
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldNotBeEmpty(name string) error {
	v, err := s.field(name)
	if err != nil {
		return err
	}
	if v == nil || fmt.Sprint(v) == "" {
		return fmt.Errorf("expected %s to be set in %s", name, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseShouldBeAListOf(n int) error {
	var items []json.RawMessage
	if err := json.Unmarshal(s.responseBody, &items); err != nil {
		return fmt.Errorf("response is not a JSON list: %s", s.responseBody)
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items, got %d: %s", n, len(items), s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), s.expand(text)) {
		return fmt.Errorf("expected response to contain %q, got %s", text, s.responseBody)
	}
	return nil
}
