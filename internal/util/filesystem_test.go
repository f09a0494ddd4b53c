package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetectFilesystemCaseSensitivity(t *testing.T) {
	// Create a temp directory for testing
	tempDir, err := os.MkdirTemp("", "photocopy-fs-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	caseSensitive, err := DetectFilesystemCaseSensitivity(tempDir)
	if err != nil {
		t.Fatalf("DetectFilesystemCaseSensitivity failed: %v", err)
	}

	t.Logf("Detected filesystem case sensitivity: %v (OS: %s)", caseSensitive, runtime.GOOS)

	// Verify the detection by actually testing
	testFile1 := filepath.Join(tempDir, "TestCase.txt")
	testFile2 := filepath.Join(tempDir, "testcase.txt")

	// Create first file
	f, err := os.Create(testFile1)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	f.Close()

	// Check if second file (different case) exists
	_, err = os.Stat(testFile2)
	fileExists := (err == nil)

	if caseSensitive {
		// On case-sensitive FS, different case = different file
		if fileExists {
			t.Error("Case-sensitive FS detected, but files with different cases collide")
		}
	} else {
		// On case-insensitive FS, different case = same file
		if !fileExists {
			t.Error("Case-insensitive FS detected, but files with different cases don't collide")
		}
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name          string
		path          string
		caseSensitive bool
		expected      string
	}{
		{
			name:          "case-sensitive: no change",
			path:          "/Users/Test/Pictures",
			caseSensitive: true,
			expected:      "/Users/Test/Pictures",
		},
		{
			name:          "case-insensitive: lowercase",
			path:          "/Users/Test/Pictures",
			caseSensitive: false,
			expected:      "/users/test/pictures",
		},
		{
			name:          "case-insensitive: mixed case",
			path:          "/2024/Prague Trip",
			caseSensitive: false,
			expected:      "/2024/prague trip",
		},
		{
			name:          "case-sensitive: preserve case",
			path:          "/2024/Prague Trip",
			caseSensitive: true,
			expected:      "/2024/Prague Trip",
		},
		{
			name:          "case-insensitive: with spaces",
			path:          "/2024/01 - Prague/IMG 0001.jpg",
			caseSensitive: false,
			expected:      "/2024/01 - prague/img 0001.jpg",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NormalizePath(tc.path, tc.caseSensitive)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestPathsEqual(t *testing.T) {
	testCases := []struct {
		name          string
		path1         string
		path2         string
		caseSensitive bool
		expected      bool
	}{
		{
			name:          "case-sensitive: exact match",
			path1:         "/Users/Test/Pictures",
			path2:         "/Users/Test/Pictures",
			caseSensitive: true,
			expected:      true,
		},
		{
			name:          "case-sensitive: different case",
			path1:         "/Users/Test/Pictures",
			path2:         "/users/test/pictures",
			caseSensitive: true,
			expected:      false,
		},
		{
			name:          "case-insensitive: different case",
			path1:         "/Users/Test/Pictures",
			path2:         "/users/test/pictures",
			caseSensitive: false,
			expected:      true,
		},
		{
			name:          "case-insensitive: exact match",
			path1:         "/Users/Test/Pictures",
			path2:         "/Users/Test/Pictures",
			caseSensitive: false,
			expected:      true,
		},
		{
			name:          "case-insensitive: city names",
			path1:         "/2024/Prague Trip",
			path2:         "/2024/prague trip",
			caseSensitive: false,
			expected:      true,
		},
		{
			name:          "case-sensitive: city names",
			path1:         "/2024/Prague Trip",
			path2:         "/2024/prague trip",
			caseSensitive: true,
			expected:      false,
		},
		{
			name:          "case-insensitive: completely different paths",
			path1:         "/2024/Prague",
			path2:         "/2024/Vienna",
			caseSensitive: false,
			expected:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := PathsEqual(tc.path1, tc.path2, tc.caseSensitive)
			if result != tc.expected {
				t.Errorf("PathsEqual(%q, %q, caseSensitive=%v): expected %v, got %v",
					tc.path1, tc.path2, tc.caseSensitive, tc.expected, result)
			}
		})
	}
}

func TestNormalizePathCleanup(t *testing.T) {
	// Test that filepath.Clean is applied in both cases
	testCases := []struct {
		name          string
		path          string
		caseSensitive bool
	}{
		{
			name:          "case-sensitive: removes trailing slash",
			path:          "/path/to/dir/",
			caseSensitive: true,
		},
		{
			name:          "case-insensitive: removes trailing slash",
			path:          "/path/to/dir/",
			caseSensitive: false,
		},
		{
			name:          "case-sensitive: resolves ..",
			path:          "/path/to/../other",
			caseSensitive: true,
		},
		{
			name:          "case-insensitive: resolves ..",
			path:          "/path/to/../other",
			caseSensitive: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NormalizePath(tc.path, tc.caseSensitive)
			cleaned := filepath.Clean(tc.path)
			if tc.caseSensitive {
				if result != cleaned {
					t.Errorf("Case-sensitive path should be cleaned: expected %q, got %q", cleaned, result)
				}
			} else {
				// Case-insensitive should also be cleaned AND lowercased
				expected := NormalizePath(cleaned, false)
				if result != expected {
					t.Errorf("Case-insensitive path should be cleaned and lowercased: expected %q, got %q", expected, result)
				}
			}
		})
	}
}
