package resume

import "strings"

// Role is one label of the fixed role taxonomy.
type Role string

const (
	RoleSoftwareEngineer Role = "software-engineer"
	RoleDataScientist    Role = "data-scientist"
	RoleDataAnalyst      Role = "data-analyst"
	RoleDataEngineer     Role = "data-engineer"
	RoleMLEngineer       Role = "ml-engineer"
	RoleWebDeveloper     Role = "web-developer"
	RoleDevOpsEngineer   Role = "devops-engineer"

	// DefaultRole is returned when nothing in the résumé points anywhere.
	DefaultRole = RoleDataAnalyst
)

// Query renders the role as a search phrase, e.g. "data analyst".
func (r Role) Query() string {
	return strings.ReplaceAll(string(r), "-", " ")
}

type roleKeywords struct {
	role     Role
	keywords []string
}

// taxonomy order is the tie-break order.
var taxonomy = []roleKeywords{
	{RoleSoftwareEngineer, []string{
		"software engineer", "software developer", "backend developer",
		"frontend developer", "full stack", "java", "javascript", "react",
		"node.js", "spring", "django", "flask",
	}},
	{RoleDataScientist, []string{
		"data scientist", "machine learning", "deep learning", "ai",
		"artificial intelligence", "neural network", "tensorflow", "pytorch",
		"keras", "nlp", "computer vision", "model",
	}},
	{RoleDataAnalyst, []string{
		"data analyst", "business analyst", "data analysis", "analytics",
		"excel", "power bi", "tableau", "sql", "reporting", "dashboard",
		"visualization", "pandas",
	}},
	{RoleDataEngineer, []string{
		"data engineer", "etl", "data pipeline", "airflow", "spark",
		"hadoop", "kafka", "data warehouse", "bigquery", "snowflake",
	}},
	{RoleMLEngineer, []string{
		"ml engineer", "machine learning engineer", "mlops", "model deployment",
		"scikit-learn", "model training", "feature engineering",
	}},
	{RoleWebDeveloper, []string{
		"web developer", "frontend", "backend", "html", "css", "javascript",
		"react", "angular", "vue", "web development",
	}},
	{RoleDevOpsEngineer, []string{
		"devops", "ci/cd", "docker", "kubernetes", "jenkins", "aws",
		"azure", "cloud", "infrastructure", "deployment",
	}},
}

var fallbackRules = []struct {
	role   Role
	skills []string
}{
	{RoleDataAnalyst, []string{"python", "sql", "pandas", "excel", "tableau", "power bi"}},
	{RoleDataScientist, []string{"tensorflow", "pytorch", "machine learning", "deep learning"}},
	{RoleSoftwareEngineer, []string{"java", "javascript", "react", "node"}},
}

// Roles lists the taxonomy in declaration order.
func Roles() []Role {
	roles := make([]Role, 0, len(taxonomy))
	for _, entry := range taxonomy {
		roles = append(roles, entry.role)
	}
	return roles
}

// Scores returns the keyword score of every role: +1 per keyword found in the
// text and +2 per skill containing the keyword.
func Scores(text string, skills []string) map[Role]int {
	lowerText := strings.ToLower(text)
	lowerSkills := lowerAll(skills)

	scores := make(map[Role]int, len(taxonomy))
	for _, entry := range taxonomy {
		score := 0
		for _, keyword := range entry.keywords {
			if strings.Contains(lowerText, keyword) {
				score++
			}
			for _, skill := range lowerSkills {
				if strings.Contains(skill, keyword) {
					score += 2
				}
			}
		}
		scores[entry.role] = score
	}
	return scores
}

// Classify picks the highest scoring role, earliest in the taxonomy on ties.
// When every role scores zero an ordered skill-based fallback applies.
func Classify(text string, skills []string) Role {
	scores := Scores(text, skills)

	best, bestScore := Role(""), 0
	for _, entry := range taxonomy {
		if score := scores[entry.role]; score > bestScore {
			best, bestScore = entry.role, score
		}
	}
	if bestScore > 0 {
		return best
	}

	lowerSkills := lowerAll(skills)
	for _, rule := range fallbackRules {
		for _, want := range rule.skills {
			for _, skill := range lowerSkills {
				if skill == want {
					return rule.role
				}
			}
		}
	}

	return DefaultRole
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
