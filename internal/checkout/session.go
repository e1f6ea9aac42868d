package checkout

import "sync"

// Session форма одного пользователя. Все обращения к форме идут под мьютексом сессии.
type Session struct {
	UserID int64

	mu   sync.Mutex
	form *Form
}

func NewSession(userID int64, form *Form) *Session {
	return &Session{UserID: userID, form: form}
}

// Do выполняет fn над формой под блокировкой. Сетевые вызовы внутри fn не делать.
func (s *Session) Do(fn func(f *Form) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.form)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.View()
}

