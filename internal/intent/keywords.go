package intent

// rule lists the phrases signalling an intent. Phrases are matched on whole
// tokens; multi-word phrases must appear contiguously.
type rule struct {
	intent  Intent
	weight  float64
	phrases []string
}

// rules are evaluated in order; earlier rules win exact ties without history.
var rules = []rule{
	{HumanAgent, 1.5, []string{
		"human", "human agent", "real person", "speak to someone", "talk to someone",
		"manager", "supervisor", "complaint", "urgent", "emergency",
	}},
	{Fees, 1, []string{
		"fee", "fees", "payment", "amount", "cost", "tuition", "charges", "price", "pay", "money",
		"शुल्क", "फीस", "पैसे",
	}},
	{Admission, 1, []string{
		"admission", "admissions", "apply", "application", "eligibility", "seat", "seats",
		"enroll", "enrollment", "join", "entry",
		"प्रवेश", "दाखिला",
	}},
	{Scholarship, 1, []string{
		"scholarship", "scholarships", "financial aid", "grant", "stipend", "merit",
		"concession", "discount", "waiver",
		"छात्रवृत्ति", "स्कॉलरशिप",
	}},
	{Timetable, 1, []string{
		"timetable", "schedule", "class timing", "lecture", "lectures", "period", "timing", "timings",
		"समय", "समय सारणी",
	}},
	{Exam, 1, []string{
		"exam", "exams", "examination", "test", "marks", "result", "results", "grade", "score",
		"passing", "fail",
		"परीक्षा", "रिजल्ट",
	}},
	{Documents, 1, []string{
		"document", "documents", "certificate", "transcript", "bonafide", "letter",
		"attestation", "verification",
		"दस्तावेज़", "प्रमाणपत्र",
	}},
	{Contact, 1, []string{
		"contact", "phone", "email", "address", "office", "location", "reach",
		"संपर्क", "पता",
	}},
	{Hostel, 1, []string{
		"hostel", "accommodation", "room", "rooms", "mess", "stay", "dormitory",
		"हॉस्टल", "छात्रावास",
	}},
	{Library, 1, []string{
		"library", "book", "books", "borrow", "reading",
		"पुस्तकालय", "किताब",
	}},
	{Greeting, 0.5, []string{
		"hello", "hi", "hey", "namaste", "good morning", "good afternoon", "good evening",
		"howdy", "greetings",
		"नमस्ते", "नमस्कार",
	}},
	{Goodbye, 0.5, []string{
		"bye", "goodbye", "good bye", "see you", "thank you", "thanks",
		"धन्यवाद", "अलविदा",
	}},
}

// followUpCues open short utterances that continue the previous topic.
var followUpCues = map[string]bool{
	"and": true, "what": true, "how": true, "when": true, "where": true, "which": true,
	"also": true, "then": true, "is": true, "are": true, "can": true, "any": true,
	"और": true, "क्या": true, "कब": true, "कितना": true, "कितनी": true,
}
