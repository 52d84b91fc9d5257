package services

import (
	"context"
	"log/slog"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// UserService registers and removes users. Credentials are out of scope.
type UserService struct {
	repo        UnitOfWork
	invalidator Invalidator
	now         Clock
}

func NewUserService(repo UnitOfWork, invalidator Invalidator) *UserService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &UserService{repo: repo, invalidator: invalidator, now: systemClock}
}

// Register creates a user. A duplicate email is a validation error on "email".
func (s *UserService) Register(ctx context.Context, in core.NewUser) (core.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}
	u, err := s.repo.Store().CreateUser(ctx, in, s.now())
	if err != nil {
		return core.User{}, core.Transient("register user", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id core.UserID) (core.User, error) {
	u, err := s.repo.Store().GetUser(ctx, id)
	if err != nil {
		return core.User{}, core.Transient("get user", err)
	}
	return u, nil
}

// Delete removes the user together with everything they own.
func (s *UserService) Delete(ctx context.Context, id core.UserID) error {
	if err := s.repo.Store().DeleteUser(ctx, id); err != nil {
		return core.Transient("delete user", err)
	}
	s.invalidator.Invalidate(id)
	slog.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

// AccountService manages accounts. The cached balance is never written
// directly: it starts at the opening balance and moves only through
// transactions, reconciliation, or a change of the opening balance.
type AccountService struct {
	repo        UnitOfWork
	invalidator Invalidator
	now         Clock
}

func NewAccountService(repo UnitOfWork, invalidator Invalidator) *AccountService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &AccountService{repo: repo, invalidator: invalidator, now: systemClock}
}

func (s *AccountService) Create(ctx context.Context, owner core.UserID, in core.AccountInput) (core.Account, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}
	var acc core.Account
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		if _, err := st.GetUser(ctx, owner); err != nil {
			return err
		}
		var err error
		acc, err = st.CreateAccount(ctx, owner, in, s.now())
		return err
	})
	if err != nil {
		return core.Account{}, core.Transient("create account", err)
	}
	s.invalidator.Invalidate(owner)
	slog.InfoContext(ctx, "Account created", "user_id", owner, "account_id", acc.ID, "amount", acc.Balance.String())
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, owner core.UserID, id core.AccountID) (core.Account, error) {
	acc, err := s.repo.Store().GetAccount(ctx, owner, id)
	if err != nil {
		return core.Account{}, core.Transient("get account", err)
	}
	return acc, nil
}

// List returns the owner's accounts ordered by name.
func (s *AccountService) List(ctx context.Context, owner core.UserID) ([]core.Account, error) {
	accs, err := s.repo.Store().ListAccounts(ctx, owner)
	if err != nil {
		return nil, core.Transient("list accounts", err)
	}
	return accs, nil
}

// Update edits an account. Changing the opening balance shifts the cached
// balance by the same difference in the same statement.
func (s *AccountService) Update(ctx context.Context, owner core.UserID, id core.AccountID, in core.AccountInput) (core.Account, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}
	var acc core.Account
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		var err error
		acc, err = st.UpdateAccount(ctx, owner, id, in, s.now())
		return err
	})
	if err != nil {
		return core.Account{}, core.Transient("update account", err)
	}
	s.invalidator.Invalidate(owner)
	slog.InfoContext(ctx, "Account updated", "user_id", owner, "account_id", id)
	return acc, nil
}

// Delete removes the account and its transactions.
func (s *AccountService) Delete(ctx context.Context, owner core.UserID, id core.AccountID) error {
	if err := s.repo.Store().DeleteAccount(ctx, owner, id); err != nil {
		return core.Transient("delete account", err)
	}
	s.invalidator.Invalidate(owner)
	slog.InfoContext(ctx, "Account deleted", "user_id", owner, "account_id", id)
	return nil
}

// CategoryService manages categories. Deleting one leaves its transactions
// uncategorized and every balance untouched.
type CategoryService struct {
	repo        UnitOfWork
	invalidator Invalidator
	now         Clock
}

func NewCategoryService(repo UnitOfWork, invalidator Invalidator) *CategoryService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &CategoryService{repo: repo, invalidator: invalidator, now: systemClock}
}

func (s *CategoryService) Create(ctx context.Context, owner core.UserID, in core.CategoryInput) (core.Category, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	var cat core.Category
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		if _, err := st.GetUser(ctx, owner); err != nil {
			return err
		}
		var err error
		cat, err = st.CreateCategory(ctx, owner, in, s.now())
		return err
	})
	if err != nil {
		return core.Category{}, core.Transient("create category", err)
	}
	slog.InfoContext(ctx, "Category created", "user_id", owner, "category_id", cat.ID)
	return cat, nil
}

func (s *CategoryService) Get(ctx context.Context, owner core.UserID, id core.CategoryID) (core.Category, error) {
	cat, err := s.repo.Store().GetCategory(ctx, owner, id)
	if err != nil {
		return core.Category{}, core.Transient("get category", err)
	}
	return cat, nil
}

// List returns the owner's categories ordered by type, then name.
func (s *CategoryService) List(ctx context.Context, owner core.UserID) ([]core.Category, error) {
	cats, err := s.repo.Store().ListCategories(ctx, owner)
	if err != nil {
		return nil, core.Transient("list categories", err)
	}
	return cats, nil
}

func (s *CategoryService) Update(ctx context.Context, owner core.UserID, id core.CategoryID, in core.CategoryInput) (core.Category, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	cat, err := s.repo.Store().UpdateCategory(ctx, owner, id, in, s.now())
	if err != nil {
		return core.Category{}, core.Transient("update category", err)
	}
	s.invalidator.Invalidate(owner)
	slog.InfoContext(ctx, "Category updated", "user_id", owner, "category_id", id)
	return cat, nil
}

func (s *CategoryService) Delete(ctx context.Context, owner core.UserID, id core.CategoryID) error {
	if err := s.repo.Store().DeleteCategory(ctx, owner, id); err != nil {
		return core.Transient("delete category", err)
	}
	s.invalidator.Invalidate(owner)
	slog.InfoContext(ctx, "Category deleted", "user_id", owner, "category_id", id)
	return nil
}
