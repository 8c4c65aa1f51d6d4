package intent

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/faqbot/internal/terms"
)

// Slot names extracted from utterances.
const (
	SlotYear         = "year"
	SlotAcademicYear = "academic_year"
	SlotAmount       = "amount"
	SlotSemester     = "semester"
	SlotProgram      = "program"
	SlotEmail        = "email"
	SlotPhone        = "phone"
)

var (
	yearRe         = regexp.MustCompile(`\b(20\d{2})\b`)
	academicYearRe = regexp.MustCompile(`\b(20\d{2})[-/](?:20)?(\d{2})\b`)
	amountRes      = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*(?:rupees?|rs)\b`),
	}
	semesterRe = regexp.MustCompile(`(?i)\bsem(?:ester)?\s*(\d+)`)
	emailRe    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe    = regexp.MustCompile(`(?:\+91|0)?[\s-]?[6-9]\d{4}[\s-]?\d{5}`)
)

// programs maps program phrases to their canonical name, most specific first.
var programs = []struct {
	phrase string
	name   string
}{
	{"computer science", "CSE"},
	{"information technology", "IT"},
	{"cse", "CSE"},
	{"cs", "CSE"},
	{"electronics", "ECE"},
	{"ece", "ECE"},
	{"eee", "EEE"},
	{"mechanical", "MECHANICAL"},
	{"civil", "CIVIL"},
	{"chemical", "CHEMICAL"},
	{"btech", "BTECH"},
	{"mtech", "MTECH"},
	{"mba", "MBA"},
	{"bba", "BBA"},
	{"bca", "BCA"},
	{"mca", "MCA"},
	{"bsc", "BSC"},
	{"msc", "MSC"},
}

// ExtractSlots pulls named values out of text. Only slots that are present are returned.
func ExtractSlots(text string) map[string]string {
	slots := make(map[string]string)

	if m := academicYearRe.FindStringSubmatch(text); m != nil {
		slots[SlotAcademicYear] = m[1] + "-" + m[2]
	}
	if m := yearRe.FindStringSubmatch(text); m != nil {
		slots[SlotYear] = m[1]
	}
	for _, re := range amountRes {
		if m := re.FindStringSubmatch(text); m != nil {
			slots[SlotAmount] = strings.ReplaceAll(m[1], ",", "")
			break
		}
	}
	if m := semesterRe.FindStringSubmatch(text); m != nil {
		slots[SlotSemester] = m[1]
	}
	if m := emailRe.FindString(text); m != "" {
		slots[SlotEmail] = m
	}
	if m := phoneRe.FindString(text); m != "" {
		slots[SlotPhone] = strings.TrimSpace(m)
	}

	tokens := terms.Tokens(text)
	for _, p := range programs {
		if containsPhrase(tokens, terms.Tokens(p.phrase)) {
			slots[SlotProgram] = p.name
			break
		}
	}
	return slots
}
