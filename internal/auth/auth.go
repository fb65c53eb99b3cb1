package auth

// Service is the Telegram user allowlist. An empty allowlist admits everyone.
// It is read-only after New and safe for concurrent use.
type Service struct {
	allowed map[int64]struct{}
}

func New(ids []int64) *Service {
	s := &Service{allowed: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.allowed[id] = struct{}{}
	}
	return s
}

func (s *Service) IsAllowed(userID int64) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}
