package system

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// UserExists checks if a user exists
func UserExists(username string) (bool, error) {
	_, err := user.Lookup(username)
	if err == nil {
		return true, nil
	}

	// Check if it's a "user not found" error
	if _, ok := err.(user.UnknownUserError); ok {
		return false, nil
	}

	return false, fmt.Errorf("failed to lookup user %s: %w", username, err)
}

// CurrentUsername returns the name of the user running the installer
func CurrentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return u.Username, nil
}

// ChownToUser hands path to username and its primary group
func ChownToUser(path, username string) error {
	u, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("failed to lookup user %s: %w", username, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("invalid UID for %s: %w", username, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("invalid GID for %s: %w", username, err)
	}

	if err := os.Lchown(path, uid, gid); err != nil {
		return fmt.Errorf("failed to chown %s to %s: %w", path, username, err)
	}
	return nil
}
