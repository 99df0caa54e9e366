package agent

import (
	"fmt"
	"math"
	"strings"

	"github.com/tripbrain-dev/tripbrain/internal/nlu"
	"github.com/tripbrain-dev/tripbrain/internal/weather"
)

// buildResponse constructs the user-facing text for a successful turn.
func buildResponse(result *TurnResult) string {
	locName := ""
	if result.Location != nil {
		locName = result.Location.Name
	}

	var parts []string

	if result.Weather != nil {
		parts = append(parts, formatWeather(locName, result.Weather))
	}

	wantsPlaces := result.Intent == nlu.IntentPlaces || result.Intent == nlu.IntentBoth
	if wantsPlaces {
		if len(parts) > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, formatPlaces(locName, result))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("I found information about %s, but couldn't retrieve specific details.", locName)
	}
	return strings.Join(parts, "\n")
}

func formatPlaces(locName string, result *TurnResult) string {
	var lines []string

	if len(result.Places) == 0 {
		if result.FollowUp {
			return fmt.Sprintf("I've shown you all the places I know about in %s.", locName)
		}
		return fmt.Sprintf("I couldn't find any tourist attractions in %s at the moment.", locName)
	}

	if result.FollowUp {
		lines = append(lines, fmt.Sprintf("Here are some more places you can visit in %s:", locName))
	} else {
		lines = append(lines, fmt.Sprintf("In %s these are the places you can go:", locName))
	}
	for _, place := range result.Places {
		lines = append(lines, "- "+place.Name)
	}

	if result.Exhausted {
		lines = append(lines, "", "That's everything I have for this location.")
	}

	return strings.Join(lines, "\n")
}

func formatWeather(locName string, snapshot *weather.Snapshot) string {
	var lines []string

	line := fmt.Sprintf("In %s it's currently %.0f°C with %s.", locName, snapshot.Temperature, snapshot.Condition)
	if snapshot.FeelsLike != nil && math.Abs(*snapshot.FeelsLike-snapshot.Temperature) > 2 {
		line += fmt.Sprintf(" Feels like %.0f°C.", *snapshot.FeelsLike)
	}
	lines = append(lines, line)

	var details []string
	if snapshot.RainProbability != nil && *snapshot.RainProbability > 0 {
		details = append(details, fmt.Sprintf("%d%% chance of rain", *snapshot.RainProbability))
	}
	if snapshot.Humidity != nil {
		details = append(details, fmt.Sprintf("humidity %d%%", *snapshot.Humidity))
	}
	if snapshot.WindSpeed != nil {
		details = append(details, fmt.Sprintf("wind %.0f km/h", *snapshot.WindSpeed))
	}
	if len(details) > 0 {
		lines = append(lines, "("+strings.Join(details, ", ")+")")
	}

	if summary := formatWeekAhead(snapshot.DailyForecast); summary != "" {
		lines = append(lines, "", summary)
	}

	return strings.Join(lines, "\n")
}

// formatWeekAhead summarizes the daily forecast: temperature range, rainy
// days, or the dominant condition.
func formatWeekAhead(forecast []weather.DailyForecast) string {
	if len(forecast) == 0 {
		return ""
	}

	maxTemp := forecast[0].MaxTemp
	minTemp := forecast[0].MinTemp
	rainyDays := 0
	conditionCounts := make(map[string]int)

	for _, day := range forecast {
		if day.MaxTemp > maxTemp {
			maxTemp = day.MaxTemp
		}
		if day.MinTemp < minTemp {
			minTemp = day.MinTemp
		}
		if day.RainProbability > 40 {
			rainyDays++
		}
		conditionCounts[day.Condition]++
	}

	summary := fmt.Sprintf("Week ahead: Expect temperatures between %.0f°C and %.0f°C", minTemp, maxTemp)
	if rainyDays > 0 {
		plural := ""
		if rainyDays > 1 {
			plural = "s"
		}
		summary += fmt.Sprintf(", with rain likely on %d day%s.", rainyDays, plural)
	} else {
		dominant := ""
		for condition, count := range conditionCounts {
			if dominant == "" || count > conditionCounts[dominant] {
				dominant = condition
			}
		}
		summary += fmt.Sprintf(", mostly %s.", strings.ToLower(dominant))
	}
	return summary
}
