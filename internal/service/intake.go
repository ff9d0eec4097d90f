package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// IntakeOrder is the fixed step sequence of the intake interview.
var IntakeOrder = []string{
	"name_full",
	"email",
	"phone_number",
	"country",
	"age_band",
	"job_nature",
	"experience_years_band",
	"job_title_exact",
	"sector",
	"learning_reason",
}

type intakeStep struct {
	Type            string
	Prompt          map[string]string
	Options         map[string][]string
	ValidationError map[string]string
}

var intakeOpening = map[string]string{
	"ar": "أهلاً 👋 قبل ما نبدأ، هحتاج منك بعض التفاصيل البسيطة علشان نخصّص الاسئلة حسب خبرتك وهدفك. هنكملها خطوة بخطوة",
	"en": "Hi 👋 Before we start, I'll need a few quick details so I can tailor the questions to your experience and goals. We'll go step by step.",
}

var intakeDoneMessage = map[string]string{
	"ar": "تمام! كده عندي صورة أوضح عنك. هنبدأ أسئلة التقييم دلوقتي. الهدف مش نجاح ورسوب الهدف نفهم مستواك بدقة علشان نطلع لك خطة مناسبة",
	"en": "Great! I now have a clearer picture of you. We'll start the assessment now. There's no pass or fail — the goal is to gauge your level accurately so we can give you a suitable plan.",
}

var intakeCatalog = map[string]intakeStep{
	"name_full": {
		Type:            "text",
		Prompt:          map[string]string{"en": "What's your full name?", "ar": "ممكن تكتب اسمك الكامل؟"},
		ValidationError: map[string]string{"en": "Please enter your full name.", "ar": "من فضلك اكتب اسمك كامل."},
	},
	"email": {
		Type:            "text",
		Prompt:          map[string]string{"en": "Could you enter your email address?", "ar": "ممكن تدخل بريدك الإلكتروني؟"},
		ValidationError: map[string]string{"en": "That email doesn't look valid. Please try again.", "ar": "البريد الالكتروني مش صحيح ممكن تكتبه مرة تانيه"},
	},
	"phone_number": {
		Type:            "text",
		Prompt:          map[string]string{"en": "What's your mobile number?", "ar": "رقم موبايلك كام؟"},
		ValidationError: map[string]string{"en": "Phone number isn't valid. Digits, spaces and an optional + are allowed.", "ar": "رقم الموبايل مش واضح. مسموح أرقام ومسافات و+"},
	},
	"country": {
		Type:   "country",
		Prompt: map[string]string{"en": "Which country are you based in?", "ar": "من أي دولة بتكلّمنا؟"},
		Options: map[string][]string{
			"en": {"Algeria", "Argentina", "Australia", "Austria", "Bahrain", "Bangladesh", "Belgium", "Brazil", "Canada", "Chile", "China", "Colombia", "Denmark", "Egypt", "Finland", "France", "Germany", "Greece", "India", "Indonesia", "Iraq", "Ireland", "Italy", "Japan", "Jordan", "Kenya", "Kuwait", "Lebanon", "Libya", "Malaysia", "Mexico", "Morocco", "Netherlands", "New Zealand", "Nigeria", "Norway", "Oman", "Pakistan", "Palestine", "Philippines", "Poland", "Portugal", "Qatar", "Saudi Arabia", "Singapore", "South Africa", "South Korea", "Spain", "Sudan", "Sweden", "Switzerland", "Syria", "Thailand", "Tunisia", "Turkey", "Ukraine", "United Arab Emirates", "United Kingdom", "United States", "Vietnam", "Yemen", "Other"},
			"ar": {"الجزائر", "الأرجنتين", "أستراليا", "النمسا", "البحرين", "بنغلاديش", "بلجيكا", "البرازيل", "كندا", "تشيلي", "الصين", "كولومبيا", "الدنمارك", "مصر", "فنلندا", "فرنسا", "ألمانيا", "اليونان", "الهند", "إندونيسيا", "العراق", "أيرلندا", "إيطاليا", "اليابان", "الأردن", "كينيا", "الكويت", "لبنان", "ليبيا", "ماليزيا", "المكسيك", "المغرب", "هولندا", "نيوزيلندا", "نيجيريا", "النرويج", "عُمان", "باكستان", "فلسطين", "الفلبين", "بولندا", "البرتغال", "قطر", "السعودية", "سنغافورة", "جنوب أفريقيا", "كوريا الجنوبية", "إسبانيا", "السودان", "السويد", "سويسرا", "سوريا", "تايلاند", "تونس", "تركيا", "أوكرانيا", "الإمارات", "بريطانيا", "الولايات المتحدة", "فيتنام", "اليمن", "أخرى"},
		},
	},
	"age_band": {
		Type:    "chips",
		Prompt:  map[string]string{"en": "Pick your age range:", "ar": "اختار فئتك العمرية:"},
		Options: map[string][]string{"en": {"18–24", "25–34", "35–44", "45–54", "55+"}, "ar": {"18–24", "25–34", "35–44", "45–54", "55+"}},
	},
	"job_nature": {
		Type:   "chips",
		Prompt: map[string]string{"en": "Choose your department or nature of work:", "ar": "اختار طبيعة عملك او القسم الذي تعمل به:"},
		Options: map[string][]string{
			"en": {"Accounting/Finance", "Sales", "Marketing", "Operations", "HR", "IT/Data", "Customer Support", "Product/Engineering", "Supply Chain/Logistics", "Freelance/Consulting", "Other"},
			"ar": {"المالية/المحاسبة", "المبيعات", "التسويق", "العمليات", "الموارد البشرية", "تقنية المعلومات/البيانات", "خدمة العملاء", "سلسلة الإمداد/اللوجستيات", "عمل حر/استشارات", "أخرى"},
		},
	},
	"experience_years_band": {
		Type:   "chips",
		Prompt: map[string]string{"en": "How many years of experience do you have?", "ar": "عندك كام سنة خبرة ؟"},
		Options: map[string][]string{
			"en": {"<1y", "1–2y", "3–5y", "6–9y", "10–14y", "15y+"},
			"ar": {"أقل من سنة", "1–2 سنوات", "3–5 سنوات", "6–9 سنوات", "10–14 سنة", "15+ سنة"},
		},
	},
	"job_title_exact": {
		Type:   "text",
		Prompt: map[string]string{"en": "Type your exact job title:", "ar": "اكتب مسماك الوظيفي بشكل صحيح تماما"},
	},
	"sector": {
		Type:   "chips",
		Prompt: map[string]string{"en": "Choose your industry/sector:", "ar": "اختار قطاع شغلك:"},
		Options: map[string][]string{
			"en": {"Real Estate", "Retail/E-commerce", "Banking/Finance", "Telecom", "Healthcare", "Education", "Manufacturing", "Media/Advertising", "Travel/Hospitality", "Government/Public", "Technology/Software", "Other"},
			"ar": {"العقارات", "التجزئة/التجارة الإلكترونية", "البنوك/المالية", "الاتصالات", "الرعاية الصحية", "التعليم", "التصنيع", "الإعلام/الإعلان", "السفر/الضيافة", "الحكومي/العام", "التقنية/البرمجيات", "أخرى"},
		},
	},
	"learning_reason": {
		Type:   "chips",
		Prompt: map[string]string{"en": "Pick your main learning reason:", "ar": "اختار سبب التعلّم الأساسي:"},
		Options: map[string][]string{
			"en": {"Career shift", "Promotion", "Skill refresh", "Academic"},
			"ar": {"تغيير مسار", "ترقية", "تحديث مهارة", "أكاديمي"},
		},
	},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)
var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// ValidateIntakeInput checks one step's answer. Steps without a dedicated
// rule only require non-blank input.
func ValidateIntakeInput(stepKey, value string) bool {
	switch stepKey {
	case "name_full":
		return len(strings.Fields(value)) >= 2
	case "email":
		return emailPattern.MatchString(value)
	case "phone_number":
		return phonePattern.MatchString(phoneCleaner.Replace(value))
	}
	return strings.TrimSpace(value) != ""
}

// profileForPrompts extracts the intake fields the prompt builders use.
func profileForPrompts(intake map[string]string) map[string]string {
	out := make(map[string]string, 5)
	for _, key := range []string{"job_nature", "experience_years_band", "job_title_exact", "sector", "learning_reason"} {
		out[key] = intake[key]
	}
	return out
}

// IntakeService walks the intake interview one step per call.
type IntakeService struct {
	Sessions *SessionService
	Profiles ProfileStore
}

func NewIntakeService(sessions *SessionService, profiles ProfileStore) *IntakeService {
	return &IntakeService{Sessions: sessions, Profiles: profiles}
}

// IntakeStepView is the response of one intake turn.
type IntakeStepView struct {
	SessionID string   `json:"sessionId,omitempty"`
	StepKey   string   `json:"stepKey,omitempty"`
	Type      string   `json:"type,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
	Options   []string `json:"options,omitempty"`
	Lang      string   `json:"lang,omitempty"`
	AutoNext  bool     `json:"autoNext,omitempty"`
	Done      bool     `json:"done,omitempty"`
	Invalid   bool     `json:"error,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Next records the previous step's answer (when given) and returns the next
// step to show. An invalid answer re-asks the same step. Completing the last
// step moves the session into the assessment phase and saves the intake
// profile for reuse by future sessions.
func (s *IntakeService) Next(ctx context.Context, userID, sessionID, lang string, answer *string) (*IntakeStepView, error) {
	sess, err := s.Sessions.Resolve(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.Sessions.Lock(sess.ID)
	defer unlock()

	state, err := s.Sessions.LoadState(ctx, sess.ID, userID)
	if err != nil {
		return nil, err
	}
	if lang != "" {
		state.Lang = lang
	}
	lang = state.Lang

	if state.CurrentStep != models.StepIntake {
		return nil, ErrWrongPhase
	}

	if answer != nil && state.IntakeStepIndex < len(IntakeOrder) {
		stepKey := IntakeOrder[state.IntakeStepIndex]
		step := intakeCatalog[stepKey]
		if !ValidateIntakeInput(stepKey, *answer) {
			msg := step.ValidationError[lang]
			if msg == "" {
				if lang == "ar" {
					msg = "يرجى إدخال إجابة صحيحة"
				} else {
					msg = "Please enter a valid answer"
				}
			}
			if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
				return nil, err
			}
			return &IntakeStepView{Invalid: true, Message: msg}, nil
		}
		state.Intake[stepKey] = *answer
		if err := s.Sessions.AppendMessage(ctx, state, "user", *answer); err != nil {
			return nil, err
		}
		state.IntakeStepIndex++
	}

	if state.IntakeStepIndex >= len(IntakeOrder) {
		state.CurrentStep = models.StepAssessment
		done := intakeDoneMessage[lang]
		if err := s.Sessions.AppendMessage(ctx, state, "assistant", done); err != nil {
			return nil, err
		}
		if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
			return nil, err
		}
		s.saveProfile(ctx, userID, state)
		return &IntakeStepView{Done: true, Message: done}, nil
	}

	if answer == nil && state.IntakeStepIndex == 0 && !state.OpeningShown {
		state.OpeningShown = true
		opening := intakeOpening[lang]
		if err := s.Sessions.AppendMessage(ctx, state, "assistant", opening); err != nil {
			return nil, err
		}
		if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
			return nil, err
		}
		return &IntakeStepView{
			SessionID: sess.ID,
			StepKey:   "__opening__",
			Type:      "info",
			Prompt:    opening,
			Lang:      lang,
			AutoNext:  true,
		}, nil
	}

	stepKey := IntakeOrder[state.IntakeStepIndex]
	step := intakeCatalog[stepKey]
	if err := s.Sessions.AppendMessage(ctx, state, "assistant", step.Prompt[lang]); err != nil {
		return nil, err
	}
	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}
	return &IntakeStepView{
		SessionID: sess.ID,
		StepKey:   stepKey,
		Type:      step.Type,
		Prompt:    step.Prompt[lang],
		Options:   step.Options[lang],
		Lang:      lang,
	}, nil
}

func (s *IntakeService) saveProfile(ctx context.Context, userID string, state *models.SessionState) {
	if s.Profiles == nil || userID == "" {
		return
	}
	fields := make(map[string]string, len(state.Intake))
	for k, v := range state.Intake {
		fields[k] = v
	}
	_ = s.Profiles.Upsert(ctx, &models.IntakeProfile{
		UserID:    userID,
		Fields:    fields,
		Lang:      state.Lang,
		UpdatedAt: time.Now(),
	})
}
