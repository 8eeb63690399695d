package config

const osWindows = "windows"
