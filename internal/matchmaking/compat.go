package matchmaking

import "strings"

// normalizeSkills lowercases and trims a skill list into a set. Matching is
// exact string comparison after normalization, nothing fuzzier.
func normalizeSkills(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// skillsCompatible reports whether two users can trade skills: one's learn
// set intersects the other's teach set, in either direction. Both the
// matcher and the invite broadcast use this single predicate.
func skillsCompatible(myTeach, myLearn, theirTeach, theirLearn map[string]struct{}) bool {
	return intersects(myLearn, theirTeach) || intersects(myTeach, theirLearn)
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for s := range a {
		if _, ok := b[s]; ok {
			return true
		}
	}
	return false
}
