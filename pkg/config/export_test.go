package config

// ConfigEnv exposes configEnv to the external test package.
const ConfigEnv = configEnv
