package service

import (
	"errors"
	"strings"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/validation"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
	}
}

func (s *ProfileService) ByUserID(userID string) (*model.Profile, error) {
	return s.profileRepo.ByUserID(userID)
}

func (s *ProfileService) ByUsername(username string) (*model.Profile, error) {
	return s.profileRepo.ByUsername(strings.ToLower(strings.TrimSpace(username)))
}

func (s *ProfileService) UpdateName(userID, fullName string) error {
	fullName = strings.TrimSpace(fullName)

	if err := validation.ValidateName(fullName); err != nil {
		return err
	}

	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return err
	}
	profile.FullName = fullName
	return s.profileRepo.Update(profile)
}

// BecomeSeller upgrades a buyer to a seller. Admins keep their role.
func (s *ProfileService) BecomeSeller(userID string) error {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return err
	}
	if profile.Role == model.RoleAdmin {
		return errors.New("admins already have seller capabilities")
	}
	if profile.Role == model.RoleSeller {
		return nil
	}
	profile.Role = model.RoleSeller
	return s.profileRepo.Update(profile)
}

// SetAvatarURL stores the avatar's public URL; nil clears it.
func (s *ProfileService) SetAvatarURL(userID string, avatarURL *string) error {
	return s.profileRepo.UpdateAvatarURL(userID, avatarURL)
}
