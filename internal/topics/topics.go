package topics

// Level identifies one of the three assessment difficulty levels.
type Level string

const (
	LevelL1 Level = "L1"
	LevelL2 Level = "L2"
	LevelL3 Level = "L3"
)

// LevelOrder is the fixed progression order of the assessment.
var LevelOrder = []Level{LevelL1, LevelL2, LevelL3}

// Cluster codes, two per level. These are the only clusters the question
// generator is allowed to draw from.
const (
	CentralTendency   = "central_tendency_foundations"
	DispersionBoxplot = "dispersion_boxplot_foundations"
	DistributionShape = "distribution_shape_normality"
	DataQualityIQR    = "data_quality_outliers_iqr"
	Correlation       = "correlation_bivariate_patterns"
	NonNormalSkew     = "non_normal_skew_kurtosis_z"
)

// Clusters maps each level to its cluster catalog.
var Clusters = map[Level][]string{
	LevelL1: {CentralTendency, DispersionBoxplot},
	LevelL2: {DistributionShape, DataQualityIQR},
	LevelL3: {Correlation, NonNormalSkew},
}

// CatalogOrder returns every cluster code in curriculum order (L1 through L3).
func CatalogOrder() []string {
	out := make([]string, 0, 6)
	for _, lvl := range LevelOrder {
		out = append(out, Clusters[lvl]...)
	}
	return out
}

// NextLevel returns the level after lvl and true, or lvl and false when lvl is
// the last level.
func NextLevel(lvl Level) (Level, bool) {
	switch lvl {
	case LevelL1:
		return LevelL2, true
	case LevelL2:
		return LevelL3, true
	default:
		return lvl, false
	}
}

var display = map[string]map[string]string{
	"en": {
		CentralTendency:   "Central Tendency (Mean/Median/Mode)",
		DispersionBoxplot: "Dispersion & Box Plot (Range/Variance/SD)",
		DistributionShape: "Distribution Shape & Normality",
		DataQualityIQR:    "Data Quality & Outliers (IQR, LB/UB)",
		Correlation:       "Correlation & Bivariate Patterns",
		NonNormalSkew:     "Non-Normal Data (Skewness/Kurtosis/Z-Scores)",
	},
	"ar": {
		CentralTendency:   "مقاييس النزعة المركزية (المتوسط/الوسيط/المنوال)",
		DispersionBoxplot: "التشتت ومخطط الصندوق (المدى/التباين/الانحراف المعياري)",
		DistributionShape: "شكل التوزيع (Distribution Shape & Normality)",
		DataQualityIQR:    "جودة البيانات والقيم الشاذة (IQR, LB/UB)",
		Correlation:       "الارتباط والأنماط الثنائية (Correlation & Bivariate Patterns)",
		NonNormalSkew:     "البيانات غير الطبيعية (Skewness/Kurtosis/Z-Scores)",
	},
}

// Humanize converts a cluster code to its display name for the given language.
// Unknown codes are returned unchanged.
func Humanize(cluster, lang string) string {
	l := "en"
	if lang == "ar" {
		l = "ar"
	}
	if name, ok := display[l][cluster]; ok {
		return name
	}
	return cluster
}

// DisplayList converts a list of cluster codes to display names.
func DisplayList(clusters []string, lang string) []string {
	out := make([]string, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, Humanize(c, lang))
	}
	return out
}
