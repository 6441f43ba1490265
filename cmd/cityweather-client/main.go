// Command cityweather-client walks the HTTP surface the way a user would: type a few
// letters, pick a suggestion, submit it and print what the screen would show.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

type suggestions struct {
	Suggestions []string `json:"suggestions"`
	Visible     bool     `json:"visible"`
}

type state struct {
	Query   string `json:"query"`
	City    string `json:"city"`
	Weather *struct {
		Temperature float64 `json:"temperature"`
		Humidity    float64 `json:"humidity"`
		Condition   string  `json:"condition"`
		Units       string  `json:"units"`
	} `json:"weather"`
	WeatherError   string `json:"weatherError"`
	LocalTimeLabel string `json:"localTimeLabel"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "Base URL of the cityweather server")
	prefix := flag.String("q", "Auck", "Text to type into the search box")
	flag.Parse()

	if err := run(*baseURL, *prefix); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(baseURL, prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetError(&apiError{})

	fmt.Println("City Weather Client")
	fmt.Println("===================")

	var typed suggestions
	resp, err := client.R().SetContext(ctx).
		SetQueryParam("q", prefix).
		SetResult(&typed).
		Get("/api/cities")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("fetch suggestions: %w", err)
	}
	fmt.Printf("Suggestions for %q: %v\n", prefix, typed.Suggestions)

	if !typed.Visible {
		fmt.Println("No matching cities.")
		return nil
	}
	city := typed.Suggestions[0]

	var st state
	resp, err = client.R().SetContext(ctx).
		SetBody(map[string]string{"city": city}).
		SetResult(&st).
		Post("/api/select")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("select %s: %w", city, err)
	}

	fmt.Printf("Submitting %s...\n", st.Query)
	resp, err = client.R().SetContext(ctx).
		SetBody(map[string]string{"city": st.Query}).
		SetResult(&st).
		Post("/api/submit")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("submit %s: %w", city, err)
	}

	fmt.Printf("\n%s - %s\n", st.City, st.LocalTimeLabel)
	if st.Weather == nil {
		fmt.Println(st.WeatherError)
		return nil
	}
	pretty, _ := json.MarshalIndent(st.Weather, "", "  ")
	fmt.Println(string(pretty))
	return nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
		return fmt.Errorf("%s: %s", resp.Status(), e.Message)
	}
	return errors.New(resp.Status())
}
